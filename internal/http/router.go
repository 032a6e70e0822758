// Package httpapi wires the HTTP transport (Gin) to the use cases, middleware
// and route handlers.
//
// Routes (relative to API_BASE_PATH unless noted):
//
//	POST /contact, POST /mail          contact form submissions
//	POST /tasks/start                  start a task (X-API-Key when configured)
//	GET  /telegram/last_chat           last captured chat
//	POST TELEGRAM_WEBHOOK_PATH         bot webhook (absolute path)
//	GET  /health, /metrics, /swagger/* (absolute paths)
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-notify-backend/internal/config"
	"github.com/tbourn/go-notify-backend/internal/http/handlers"
	"github.com/tbourn/go-notify-backend/internal/http/middleware"
	"github.com/tbourn/go-notify-backend/internal/services"
)

// maxBodyBytes caps request bodies. The largest legit payload is a contact
// message of 15000 bytes plus metadata.
const maxBodyBytes = 64 << 10

// Deps are the collaborators behind the routes.
type Deps struct {
	Contact  handlers.ContactService
	Mail     handlers.MailService
	Tasks    handlers.TaskService
	Telegram handlers.TelegramService
	Jobs     services.Scheduler
}

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger + Logger: access log and request-scoped logger
//  4. Recovery: capture panics after the loggers
//  5. Body size limiter
//  6. Metrics
//  7. Edge rate limiter (per client identity)
//  8. CORS, security headers, gzip
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", middleware.MetricsHandler())

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClient())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(deps.Contact, deps.Mail, deps.Tasks, deps.Telegram, deps.Jobs)

	r.GET("/health", h.Health)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.POST(cfg.Telegram.WebhookPath, h.TelegramWebhook)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/contact", h.SubmitContact)
		api.POST("/mail", h.SubmitMail)
		api.POST("/tasks/start", middleware.RequireSharedSecret(cfg.TasksAPIKey), h.StartTask)
		api.GET("/telegram/last_chat", h.LastChat)
	}
}

// corsMiddleware allows every origin when none is configured, otherwise only
// the allowlist. Credentials are never allowed.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.APIKeyHeader},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(cc)
}

// limitBody caps the request body at maxBytes; reads past it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
