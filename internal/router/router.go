package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"memberhub/internal/auth"
	"memberhub/internal/config"
	"memberhub/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	sessions auth.SessionStoreInterface,
	authHandler *handler.AuthHandler,
	memberHandler *handler.MemberHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/forgot-password", authHandler.ForgotPassword)
	api.POST("/auth/reset-password", authHandler.ResetPassword)

	// Secured routes: signature check first, then the server-side session
	// record, so revoked tokens die even before their JWT expiry.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
	}), requireLiveSession(sessions))

	secured.GET("/me", memberHandler.Me)
	secured.POST("/admin/backfill-membership-numbers", memberHandler.BackfillMembershipNumbers)
}

// requireLiveSession rejects tokens whose session record was revoked.
func requireLiveSession(sessions auth.SessionStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwtv5.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(jwtv5.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			tokenID, _ := claims["jti"].(string)
			if tokenID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			alive, err := sessions.SessionExists(c.Request().Context(), tokenID)
			if err != nil || !alive {
				return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
			}
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
