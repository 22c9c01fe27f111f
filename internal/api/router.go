package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/tablewise/restaurant-backoffice/docs" // swagger docs

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/api/handler"
	"github.com/tablewise/restaurant-backoffice/internal/api/middleware"
	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/http/handlers"
)

// Deps carries the services and settings the router wires into handlers.
type Deps struct {
	Log        zerolog.Logger
	Production bool
	Sessions   apihandler.SessionProvider

	Auth    ports.AuthService
	Users   ports.UserService
	Pages   ports.PageService
	Jobs    ports.CatalogService[domain.Job]
	Slides  ports.CatalogService[domain.SlideShow]
	Staff   ports.StaffService
	Billing ports.BillingService

	// Checks are probed by /health/ready.
	Checks []handlers.Check
	// Metrics receives the HTTP request metrics. Defaults to the global
	// Prometheus registerer.
	Metrics prometheus.Registerer
}

var (
	signedIn = &apihandler.AuthOptions{Required: true}
	admins   = &apihandler.AuthOptions{Required: true, Roles: []string{domain.RoleAdmin}}
	editors  = &apihandler.AuthOptions{Required: true, Roles: []string{domain.RoleAdmin, domain.RoleEditor}}
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	responder := apihandler.NewResponder(d.Log, d.Production)
	e.HTTPErrorHandler = NewHTTPErrorHandler(responder)
	f := apihandler.NewFactory(d.Sessions, responder, d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "restaurant",
		Subsystem:  "http",
		Registerer: d.Metrics,
	}))

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler(), middleware.RequireRole(d.Sessions, responder, domain.RoleAdmin))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Auth ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Production)
	auth := api.Group("/auth")
	auth.Any("/register", f.Create(apihandler.Options{Method: http.MethodPost, Schema: apihandler.JSON[handler.RegisterRequest]()}, authHandler.Register))
	auth.Any("/login", f.Create(apihandler.Options{Method: http.MethodPost, Schema: apihandler.JSON[handler.LoginRequest]()}, authHandler.Login))
	auth.Any("/staff/login", f.Create(apihandler.Options{Method: http.MethodPost, Schema: apihandler.JSON[handler.LoginRequest]()}, authHandler.StaffLogin))
	auth.Any("/logout", f.Create(apihandler.Options{Method: http.MethodPost, Auth: signedIn}, authHandler.Logout))
	auth.Any("/password/forgot", f.Create(apihandler.Options{Method: http.MethodPost, Schema: apihandler.JSON[handler.ForgotPasswordRequest]()}, authHandler.ForgotPassword))
	auth.Any("/password/reset", f.Create(apihandler.Options{Method: http.MethodPost, Schema: apihandler.JSON[handler.ResetPasswordRequest]()}, authHandler.ResetPassword))

	// --- Users ---
	userHandler := handler.NewUserHandler(d.Users)
	users := api.Group("/users")
	users.GET("", f.Create(apihandler.Options{Auth: admins}, userHandler.List))
	users.GET("/me", f.Create(apihandler.Options{Auth: signedIn}, userHandler.Me))
	users.PATCH("/me", f.Create(apihandler.Options{Method: http.MethodPatch, Schema: apihandler.JSON[handler.UpdateProfileRequest](), Auth: signedIn}, userHandler.UpdateMe))
	users.Any("/:id", f.Create(apihandler.Options{Auth: admins}, userHandler.Get))
	users.Any("/:id/role", f.Create(apihandler.Options{Method: http.MethodPatch, Schema: apihandler.JSON[handler.UpdateRoleRequest](), Auth: admins}, userHandler.UpdateRole))

	// --- Pages ---
	pageHandler := handler.NewPageHandler(d.Pages)
	pageSchema := apihandler.JSON[handler.PageRequest]()
	pages := api.Group("/pages")
	pages.Any("/menu", f.Create(apihandler.Options{}, pageHandler.Menu))
	pages.Any("/slug/:slug", f.Create(apihandler.Options{}, pageHandler.GetBySlug))
	pages.GET("", f.Create(apihandler.Options{Auth: editors}, pageHandler.List))
	pages.POST("", f.Create(apihandler.Options{Method: http.MethodPost, Schema: pageSchema, Auth: editors}, pageHandler.Create))
	pages.GET("/:id", f.Create(apihandler.Options{Auth: editors}, pageHandler.Get))
	pages.PUT("/:id", f.Create(apihandler.Options{Method: http.MethodPut, Schema: pageSchema, Auth: editors}, pageHandler.Update))
	pages.DELETE("/:id", f.Create(apihandler.Options{Method: http.MethodDelete, Auth: editors}, pageHandler.Delete))

	// --- Jobs and slides ---
	jobHandler := handler.NewJobHandler(d.Jobs)
	jobs := api.Group("/jobs")
	jobs.GET("", f.Create(apihandler.Options{}, jobHandler.PublicList))
	jobs.POST("", f.Create(apihandler.Options{Method: http.MethodPost, Schema: jobHandler.Schema(), Auth: editors}, jobHandler.Create))
	jobs.Any("/all", f.Create(apihandler.Options{Auth: editors}, jobHandler.ListAll))
	jobs.GET("/:id", f.Create(apihandler.Options{}, jobHandler.PublicGet))
	jobs.PUT("/:id", f.Create(apihandler.Options{Method: http.MethodPut, Schema: jobHandler.Schema(), Auth: editors}, jobHandler.Update))
	jobs.DELETE("/:id", f.Create(apihandler.Options{Method: http.MethodDelete, Auth: editors}, jobHandler.Delete))

	slideHandler := handler.NewSlideHandler(d.Slides)
	slides := api.Group("/slides")
	slides.GET("", f.Create(apihandler.Options{}, slideHandler.PublicList))
	slides.POST("", f.Create(apihandler.Options{Method: http.MethodPost, Schema: slideHandler.Schema(), Auth: editors}, slideHandler.Create))
	slides.Any("/all", f.Create(apihandler.Options{Auth: editors}, slideHandler.ListAll))
	slides.PUT("/:id", f.Create(apihandler.Options{Method: http.MethodPut, Schema: slideHandler.Schema(), Auth: editors}, slideHandler.Update))
	slides.DELETE("/:id", f.Create(apihandler.Options{Method: http.MethodDelete, Auth: editors}, slideHandler.Delete))

	// --- Staff ---
	staffHandler := handler.NewStaffHandler(d.Staff)
	staffSchema := apihandler.JSON[handler.StaffRequest]()
	staff := api.Group("/staff")
	staff.GET("", f.Create(apihandler.Options{Auth: admins}, staffHandler.List))
	staff.POST("", f.Create(apihandler.Options{Method: http.MethodPost, Schema: staffSchema, Auth: admins}, staffHandler.Create))
	staff.GET("/:id", f.Create(apihandler.Options{Auth: admins}, staffHandler.Get))
	staff.PUT("/:id", f.Create(apihandler.Options{Method: http.MethodPut, Schema: staffSchema, Auth: admins}, staffHandler.Update))
	staff.DELETE("/:id", f.Create(apihandler.Options{Method: http.MethodDelete, Auth: admins}, staffHandler.Delete))

	// --- Billing ---
	billingHandler := handler.NewBillingHandler(d.Billing)
	billing := api.Group("/billing")
	billing.Any("/checkout", f.Create(apihandler.Options{Method: http.MethodPost, Schema: apihandler.JSON[handler.CheckoutRequest](), Auth: signedIn}, billingHandler.Checkout))
	billing.Any("/portal", f.Create(apihandler.Options{Method: http.MethodPost, Auth: signedIn}, billingHandler.Portal))
	billing.Any("/subscription", f.Create(apihandler.Options{Auth: signedIn}, billingHandler.Subscription))
	billing.Any("/webhook", f.Create(apihandler.Options{Method: http.MethodPost}, billingHandler.Webhook))

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency.Round(time.Microsecond)).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
