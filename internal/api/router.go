package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/estateline/crm-api/docs"
	"github.com/estateline/crm-api/internal/api/handler"
	"github.com/estateline/crm-api/internal/api/middleware"
	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

// RouterDeps bundles everything the router mounts: the wired services, the
// datastores for readiness probes, and the JWT secret for the auth middleware.
type RouterDeps struct {
	DB        *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	Logger    zerolog.Logger

	AuthService   ports.AuthService
	UserService   ports.UserService
	LeadService   ports.LeadService
	ImportService ports.ImportService
	ReportService ports.ReportService
	ExportService ports.ExportService
	FileStore     ports.FileStore
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("crm"))

	auth := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	adminOrManager := middleware.RBAC(domain.RoleAdmin, domain.RoleManager)
	anyRole := middleware.RBAC(domain.RoleAdmin, domain.RoleManager, domain.RoleUser)
	agents := middleware.RBAC(domain.RoleManager, domain.RoleUser)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.UserService)
	leadHandler := handler.NewLeadHandler(deps.LeadService, deps.ImportService)
	reportHandler := handler.NewReportHandler(deps.ReportService, deps.ExportService, deps.FileStore)

	// --- Auth & user administration ---
	authGroup := e.Group("/api/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/register", authHandler.Register, auth, adminOnly)
	authGroup.GET("/current-user", authHandler.CurrentUser, auth, anyRole)
	authGroup.GET("/all", userHandler.All, auth, adminOnly)
	authGroup.GET("/managers", userHandler.Managers, auth, adminOnly)
	authGroup.GET("/available-users", userHandler.AvailableUsers, auth, adminOrManager)
	authGroup.PUT("/profile", userHandler.Profile, auth, anyRole)
	authGroup.PUT("/:id", userHandler.Update, auth, adminOnly)

	// --- Leads ---
	leadGroup := e.Group("/api/client", auth, anyRole)
	leadGroup.GET("/get", leadHandler.List)
	leadGroup.POST("/create", leadHandler.Create)
	leadGroup.POST("/upload-excel", leadHandler.UploadExcel, adminOrManager)
	leadGroup.PUT("/edit/:id", leadHandler.Edit)
	leadGroup.DELETE("/delete/:id", leadHandler.Delete)
	leadGroup.PUT("/followup/:id", leadHandler.FollowUp)
	leadGroup.POST("/assign", leadHandler.Assign, adminOrManager)
	leadGroup.POST("/unassign", leadHandler.Unassign, adminOrManager)
	leadGroup.GET("/search", leadHandler.Search)

	// --- Sales reports ---
	reportGroup := e.Group("/api/report", auth, anyRole)
	reportGroup.POST("/create", reportHandler.Create, agents)
	reportGroup.GET("/get", reportHandler.List)
	reportGroup.GET("/followups", reportHandler.AllFollowUps)
	reportGroup.GET("/followups/today", reportHandler.TodayFollowUps)
	reportGroup.GET("/today/:reportId", reportHandler.ReportFollowUps)
	reportGroup.POST("/:reportId/follow-up", reportHandler.AddFollowUp, agents)
	reportGroup.PUT("/follow-up/:id", reportHandler.EditFollowUp, agents)
	reportGroup.DELETE("/follow-up/:id", reportHandler.DeleteFollowUp, agents)
	reportGroup.GET("/export", reportHandler.Export, adminOnly)
	reportGroup.GET("/summary", reportHandler.Summary, adminOnly)
	reportGroup.GET("/download-summary", reportHandler.DownloadSummary, adminOnly)
	reportGroup.PUT("/:id", reportHandler.Edit, agents)
	reportGroup.DELETE("/:id", reportHandler.Delete, agents)

	// --- Observability & docs (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	return e
}
