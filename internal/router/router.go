package router

import (
	"fmt"
	"net/http"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"userdir/internal/auth"
	"userdir/internal/config"
	apperrors "userdir/internal/errors"
	"userdir/internal/handler"
	"userdir/internal/model"
	"userdir/internal/ratelimit"
	"userdir/internal/validation"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	v *validation.Validator,
	session *auth.SessionMiddleware,
	authorizer *auth.Authorizer,
	gate *ratelimit.Gate,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = v
	e.HTTPErrorHandler = errorHandler()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login,
		ratelimit.Middleware(gate, ratelimit.ByIP("login"), cfg.LoginLimit, time.Minute))
	api.GET("/auth/me", authHandler.Me,
		session.Optional(),
		ratelimit.Middleware(gate, ratelimit.ByPrincipal("anon"), cfg.AnonLimit, time.Minute))

	// Secured routes: token signature first, then the live-session check.
	secured := api.Group("",
		echojwt.WithConfig(echojwt.Config{
			SigningKey:  []byte(cfg.JWTSecret),
			TokenLookup: "header:" + echo.HeaderAuthorization,
			ErrorHandler: func(c echo.Context, err error) error {
				return apperrors.ErrUnauthenticated
			},
		}),
		session.Require(),
		ratelimit.Middleware(gate, ratelimit.ByPrincipal("api"), cfg.APILimit, time.Minute),
	)

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/users", userHandler.List)

	// Mutation routes: administrator only, with the tighter mutation window.
	admin := secured.Group("/users",
		auth.RequireRoles(authorizer, "users", string(model.RoleAdministrator)),
		ratelimit.Middleware(gate, ratelimit.ByPrincipal("mutate"), cfg.MutateLimit, time.Minute),
	)
	admin.POST("", userHandler.Create)
	admin.PUT("/:id", userHandler.Update)
	admin.DELETE("/:id", userHandler.Delete)
}

// errorHandler translates every error through the closed taxonomy. Unmapped
// errors are logged with their cause and reach the caller only as a generic
// internal error.
func errorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, apperrors.ErrorResponse{
				Error: fmt.Sprintf("%v", he.Message),
				Code:  codeForStatus(he.Code),
			})
			return
		}

		httpErr := apperrors.MapErrorToHTTP(err)
		if httpErr.StatusCode == http.StatusInternalServerError {
			c.Logger().Error(err)
		}
		if httpErr.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(httpErr.RetryAfter.Seconds())))
		}
		_ = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "UNAUTHORIZED"
	case http.StatusNotFound:
		return "RESOURCE_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "INTERNAL_ERROR"
	}
}
