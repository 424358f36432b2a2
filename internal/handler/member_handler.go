package handler

import (
	"errors"
	"net/http"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	apperrors "memberhub/internal/errors"
	"memberhub/internal/model"
	"memberhub/internal/service"
)

// MemberHandler handles member profile and admin endpoints.
type MemberHandler struct {
	svc service.MemberService
}

// NewMemberHandler creates a member handler.
func NewMemberHandler(svc service.MemberService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

// sessionClaims extracts the fields this handler needs from the validated
// token the JWT middleware attached.
func sessionClaims(c echo.Context) (userID uint, role string, ok bool) {
	token, ok := c.Get("user").(*jwtv5.Token)
	if !ok {
		return 0, "", false
	}
	claims, ok := token.Claims.(jwtv5.MapClaims)
	if !ok {
		return 0, "", false
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", false
	}
	role, _ = claims["role"].(string)
	return uint(id), role, true
}

// Me godoc
// @Summary Current member profile
// @Tags members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /me [get]
func (h *MemberHandler) Me(c echo.Context) error {
	userID, _, ok := sessionClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	user, err := h.svc.Profile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "member not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to load profile",
			Code:  "PROFILE_FAILED",
		})
	}
	return c.JSON(http.StatusOK, user)
}

// BackfillMembershipNumbers godoc
// @Summary Backfill missing or legacy membership numbers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/backfill-membership-numbers [post]
func (h *MemberHandler) BackfillMembershipNumbers(c echo.Context) error {
	_, role, ok := sessionClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	if role != model.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}

	updated, skipped, err := h.svc.BackfillMembershipNumbers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "backfill failed",
			Code:  "BACKFILL_FAILED",
		})
	}
	return c.JSON(http.StatusOK, map[string]int{
		"updated": updated,
		"skipped": skipped,
	})
}
