package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/siap-api/internal/handler"
	"github.com/noah-isme/siap-api/internal/middleware"
	"github.com/noah-isme/siap-api/internal/service"
	"github.com/noah-isme/siap-api/pkg/config"
	"github.com/noah-isme/siap-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/siap-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/siap-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Documents *handler.DocumentHandler
	Stats     *handler.StatsHandler
	Files     *handler.FileHandler
	Metrics   *handler.MetricsHandler
}

// Deps carries the cross-cutting pieces the router needs.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Tokens      middleware.TokenValidator
	AuthLimiter *middleware.IPRateLimiter
	Metrics     *service.MetricsService
	Handlers    Handlers
}

// New builds the gin engine with all routes registered.
func New(deps Deps) *gin.Engine {
	cfg := deps.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// ClientIP keys the auth rate limiter and audit rows, so forwarding
	// headers are honoured only from configured proxies.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		if deps.Logger != nil {
			deps.Logger.Warn("invalid TRUSTED_PROXIES, trusting none", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		}
		_ = r.SetTrustedProxies(nil)
	}
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics, "/metrics", "/health"))
	r.Use(middleware.WithResponseMeta())

	h := deps.Handlers
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/" + strings.Trim(cfg.APIPrefix, "/"))
	auth := middleware.JWT(deps.Tokens)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", middleware.RateLimit(deps.AuthLimiter), h.Auth.Register)
	authGroup.POST("/login", middleware.RateLimit(deps.AuthLimiter), h.Auth.Login)
	authGroup.GET("/me", auth, h.Auth.Me)
	authGroup.POST("/change-password", auth, h.Auth.ChangePassword)

	docs := api.Group("/documents", auth)
	docs.GET("", h.Documents.List)
	docs.POST("", h.Documents.Create)
	docs.GET("/recent", h.Documents.Recent)
	docs.GET("/unresponded", h.Documents.Unresponded)
	docs.GET("/export/:format", h.Documents.Export)
	docs.GET("/:id/preview", h.Documents.Preview)
	docs.GET("/:id/download", h.Documents.Download)
	docs.GET("/:id/link", h.Documents.Link)
	docs.PUT("/:id/respond", h.Documents.Respond)
	docs.PUT("/:id/disposition-followup", h.Documents.UpdateWorkflow)
	docs.DELETE("/responses/:responseId", h.Documents.DeleteResponse)
	docs.DELETE("/:id", middleware.RequireAdmin(), h.Documents.Delete)

	api.GET("/files/:token", h.Files.Signed)

	admin := api.Group("/admin", auth, middleware.RequireAdmin())
	admin.GET("/users", h.Users.List)
	admin.PUT("/users/:id/approve", h.Users.Approve)
	admin.PUT("/users/:id/revoke", h.Users.Revoke)
	admin.PUT("/users/:id/role", h.Users.SetRole)
	admin.DELETE("/users/:id", h.Users.Delete)

	stats := api.Group("/stats", auth)
	stats.GET("/docs/count-current-month", h.Stats.CountCurrentMonth)
	stats.GET("/docs/monthly-uploads", h.Stats.MonthlyUploads)
	stats.GET("/summary", h.Stats.Summary)

	return r
}
