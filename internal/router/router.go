package router // package router defines how HTTP routes are registered for the API

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-backend/internal/config"
	"github.com/iliyamo/shop-backend/internal/handler"
	"github.com/iliyamo/shop-backend/internal/middleware"
	"github.com/iliyamo/shop-backend/internal/model"
)

// Globals are the process-wide pieces the middleware chain needs.  RDB may
// be nil, in which case the limiter runs in memory.
type Globals struct {
	Log       zerolog.Logger
	RDB       *redis.Client
	RateLimit config.RateLimitConfig
	BodyLimit string
}

// UseGlobal installs the middleware every request passes through.  Paths
// are registered with a trailing slash; requests without one are rewritten
// before routing, except for /healthz and the media mount.
func UseGlobal(e *echo.Echo, g Globals, mediaURL string) {
	e.Pre(echomw.AddTrailingSlashWithConfig(echomw.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/healthz" || strings.HasPrefix(p, mediaURL+"/")
		},
	}))
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(g.Log))
	e.Use(middleware.RateLimit(g.RateLimit, g.RDB, g.Log))
	if g.BodyLimit != "" {
		e.Use(echomw.BodyLimit(g.BodyLimit))
	}
}

// RegisterRoutes registers the routes that need neither authentication nor
// a handler struct: the health check and the uploaded media.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, mediaDir, mediaURL string) {
	e.GET("/healthz", handler.Health(db))
	if mediaDir != "" {
		e.Static(mediaURL, mediaDir)
	}
}

// Auth carries what the token middlewares need.  Accounts is consulted on
// every authenticated request; leaving it nil trusts the signed claims.
type Auth struct {
	Secret   string
	Accounts middleware.AccountLookup
}

func (a Auth) required() echo.MiddlewareFunc { return middleware.JWTAuth(a.Secret, a.Accounts) }

func (a Auth) optional() echo.MiddlewareFunc { return middleware.OptionalJWT(a.Secret, a.Accounts) }

// admin is the chain for staff-only routes.
func (a Auth) admin() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{a.required(), middleware.RequireRole(model.RoleAdmin)}
}

// RegisterAuth registers registration, login, token and profile routes.
// Logout accepts an optional bearer token so that a signed-in client can
// end every session at once.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard Auth) {
	e.POST("/register/", a.Register)
	e.POST("/login/", a.Login)
	e.POST("/token/", a.Login)
	e.POST("/token/refresh/", a.Refresh)
	e.POST("/logout/", a.Logout, guard.optional())

	auth := guard.required()
	e.GET("/me/", a.Me, auth)
	e.PUT("/me/update/", a.UpdateMe, auth)
}
