package router // route registration for the admission API

import (
	"github.com/labstack/echo/v4"

	"github.com/aquacenter/session-admission/internal/handler"
	"github.com/aquacenter/session-admission/internal/middleware"
	"github.com/aquacenter/session-admission/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently that is only the health check, used by load balancers and
// monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Token issuance
// and exchange live under /v1/auth without a JWT; /v1/me requires a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout needs only the refresh token in the body, not a JWT, so a
	// client with an expired access token can still end its session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterMember registers the endpoints members use day to day:
// check-in, the waitlist, the schedule and their own history. All of
// them require a valid token of any role. The rate limiter guards
// only the check-in route, where terminals retry on lease timeouts.
func RegisterMember(e *echo.Echo, ch *handler.CheckinHandler, wl *handler.WaitlistHandler, sc *handler.ScheduleHandler, jwtSecret string, rateLimiter echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleMember, model.RoleStaff, model.RoleAdmin))

	g.POST("/checkin", ch.CheckIn, rateLimiter)

	g.POST("/waitlist", wl.Join)
	g.DELETE("/waitlist", wl.Leave)
	g.GET("/sessions/:id/waitlist", wl.List)

	g.GET("/schedule", sc.Schedule)
	g.GET("/my-admissions", sc.MyAdmissions)
}

// RegisterAdmin registers the staff surface: session catalog
// administration, manual admission and waitlist promotion. STAFF and
// ADMIN only.
func RegisterAdmin(e *echo.Echo, as *handler.AdminSessionHandler, aa *handler.AdminAdmitHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleStaff, model.RoleAdmin))

	g.GET("/sessions", as.List)
	g.POST("/sessions", as.Create)
	g.GET("/sessions/:id", as.Get)
	g.PATCH("/sessions/:id", as.Update)
	g.DELETE("/sessions/:id", as.Delete)

	g.GET("/occupancy", as.Occupancy)

	g.POST("/admit", aa.Admit)
	g.POST("/waitlist/promote", aa.Promote)
}
