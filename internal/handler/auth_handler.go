package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "memberhub/internal/errors"
	"memberhub/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService  service.AuthService
	resetService service.ResetService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, resetService service.ResetService) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService}
}

// RegisterRequest represents a member registration request.
type RegisterRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Country     string `json:"country"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
	Gender      string `json:"gender"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents a forgot-password request.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest carries a reset secret and the replacement password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthResponse represents a successful login response.
type AuthResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user,omitempty"`
}

// genericResetMessage is returned for every forgot-password outcome except
// rate limiting, so responses cannot confirm whether an account exists.
const genericResetMessage = "if an account exists, a password reset link has been sent"

// Register godoc
// @Summary Register a new member
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Country:   req.Country,
		Gender:    req.Gender,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date_of_birth, expected YYYY-MM-DD")
		}
		input.DateOfBirth = &dob
	}

	user, err := h.authService.Register(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmailTaken) || errors.Is(err, apperrors.ErrWeakPassword) {
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to register",
			Code:  "REGISTRATION_FAILED",
		})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "member registered successfully",
		"user":    user,
	})
}

// Login godoc
// @Summary Authenticate and issue a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: err.Error(),
				Code:  "INVALID_CREDENTIALS",
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to login",
			Code:  "LOGIN_FAILED",
		})
	}

	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// ForgotPassword godoc
// @Summary Request a password reset link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account email"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.resetService.Request(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, apperrors.ErrTooManyRequests) {
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error: err.Error(),
				Code:  "RATE_LIMITED",
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to process request",
			Code:  "RESET_REQUEST_FAILED",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": genericResetMessage})
}

// ResetPassword godoc
// @Summary Redeem a reset token and set a new password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.resetService.Redeem(c.Request().Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, apperrors.ErrInvalidResetToken) || errors.Is(err, apperrors.ErrWeakPassword) {
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to reset password",
			Code:  "RESET_FAILED",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated successfully"})
}
