// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/lanez007/MCA-proxy/app/dto"
	"github.com/lanez007/MCA-proxy/app/handlers"
	"github.com/lanez007/MCA-proxy/app/middleware"
	"github.com/lanez007/MCA-proxy/config"
	_ "github.com/lanez007/MCA-proxy/docs"
	"github.com/lanez007/MCA-proxy/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// HealthPinger reports whether one backing dependency is reachable
type HealthPinger func(ctx context.Context) error

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	cfg            *config.ProductionConfig
	authHandler    handlers.AuthHandlerInterface
	searchHandler  handlers.SearchHandlerInterface
	authMiddleware *middleware.AuthMiddleware
	limiterStorage fiber.Storage
	pingers        []HealthPinger
}

// NewFiberRouter creates a new Fiber router. limiterStorage may be nil, in
// which case rate limit counters are kept in process memory. The pingers are
// probed by the liveness endpoint; a failing pinger degrades the reported
// status without failing the probe.
func NewFiberRouter(
	cfg *config.ProductionConfig,
	authHandler handlers.AuthHandlerInterface,
	searchHandler handlers.SearchHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	limiterStorage fiber.Storage,
	pingers ...HealthPinger,
) Router {
	// Configure Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "MCA Proxy API",
		ServerHeader: "MCA-Proxy",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:            app,
		cfg:            cfg,
		authHandler:    authHandler,
		searchHandler:  searchHandler,
		authMiddleware: authMiddleware,
		limiterStorage: limiterStorage,
		pingers:        pingers,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Liveness route (no rate limiting)
	r.app.Get("/", r.healthCheck)

	// Prometheus metrics endpoint
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// API documentation routes (development only)
	if r.cfg.Deployment.Environment == "development" || r.cfg.Deployment.Environment == "local" {
		r.app.Get("/docs", r.getAPIDocumentation)
		r.app.Get("/swagger.json", r.serveSwaggerJSON)
		r.app.Get("/swagger", r.serveSwaggerUI)
		log.Println("API documentation enabled for development")
	}

	// Preflight and probe OPTIONS requests get an empty 200 for any path
	r.app.Options("/*", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("")
	})

	// Apply general rate limiting to all routes registered below
	r.app.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		Storage:    r.limiterStorage,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: "Too many requests. Please try again later.",
				Code:  "RATE_LIMIT_EXCEEDED",
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for liveness and metrics
			return c.Path() == "/" || c.Path() == r.cfg.Metrics.Path
		},
	}))

	// Auth routes with stricter rate limiting
	auth := r.app.Group("/auth")

	auth.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.AuthRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		Storage:    r.limiterStorage,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: "Too many requests. Please try again later.",
				Code:  "RATE_LIMIT_EXCEEDED",
			})
		},
	}))

	// Auth endpoints
	auth.Post("/register", r.authHandler.Register)
	auth.Post("/login", r.authHandler.Login)

	me := auth.Group("/me", r.authMiddleware.Authenticate())
	me.Get("/", r.authHandler.Me)

	// Lead search endpoints require a valid token
	search := r.app.Group("/search", r.authMiddleware.Authenticate())
	search.Get("/", r.searchHandler.Search)
	search.Get("/export", r.searchHandler.Export)
	search.Get("/history", r.searchHandler.History)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// SetupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         r.cfg.Security.XSSProtection,
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         r.cfg.Security.XFrameOptions,
		HSTSMaxAge:            r.cfg.Security.HSTSMaxAge,
		ContentSecurityPolicy: r.cfg.Security.CSPPolicy,
		ReferrerPolicy:        r.cfg.Security.ReferrerPolicy,
	}))

	// CORS middleware
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.Security.AllowedOrigins,
		AllowMethods: r.cfg.Security.AllowedMethods,
		AllowHeaders: r.cfg.Security.AllowedHeaders,
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Skip compression for media content types
			contentType := c.Get("Content-Type")
			return contains(contentType, "image/") ||
				contains(contentType, "video/") ||
				contains(contentType, "audio/")
		},
	}))

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for liveness probes
			return c.Path() == "/"
		},
	}))

	// Prometheus request metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Custom security middleware
	r.app.Use(r.securityMiddleware)

	// API key validation middleware (optional)
	r.app.Use(r.apiKeyMiddleware)

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNowRFC3339(),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Custom security middleware
func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	// Add security headers
	c.Set("X-Response-Time", utils.UTCNowRFC3339())
	c.Set("Server", "MCA-Proxy")

	// IP blocking (if configured)
	clientIP := c.IP()
	for _, blockedIP := range r.cfg.Security.IPBlacklist {
		if clientIP == blockedIP {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: "Access denied from this IP address",
				Code:  "ACCESS_DENIED",
			})
		}
	}

	// Continue to next middleware
	return c.Next()
}

// API key validation middleware
func (r *FiberRouter) apiKeyMiddleware(c fiber.Ctx) error {
	// Skip API key validation for liveness and metrics
	if c.Path() == "/" || c.Path() == r.cfg.Metrics.Path {
		return c.Next()
	}

	if !r.cfg.Security.RequireAPIKey {
		return c.Next()
	}

	apiKey := c.Get(r.cfg.Security.APIKeyHeader)
	if apiKey == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: "API key is required",
			Code:  "MISSING_API_KEY",
		})
	}

	for _, validKey := range r.cfg.Security.AllowedAPIKeys {
		if apiKey == validKey {
			return c.Next()
		}
	}

	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: "Invalid API key",
		Code:  "INVALID_API_KEY",
	})
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Liveness endpoint. Always answers 200; a failing dependency only degrades
// the reported status text so load balancers keep routing while alerting.
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	status := "ok"
	if len(r.pingers) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, ping := range r.pingers {
			if err := ping(ctx); err != nil {
				status = "degraded"
				break
			}
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    status,
		Service:   "mca-proxy",
		Version:   r.cfg.Deployment.Version,
		Timestamp: utils.UTCNowRFC3339(),
	})
}

// API documentation endpoint
func (r *FiberRouter) getAPIDocumentation(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"title":       "MCA Proxy API Documentation",
		"version":     r.cfg.Deployment.Version,
		"description": "Business lead search API with monthly quotas",
		"endpoints":   GetRouteDocumentation(),
	})
}

// Serve Swagger UI HTML page
func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	htmlContent := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>MCA Proxy API - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
    <style>
        html {
            box-sizing: border-box;
            overflow: -moz-scrollbars-vertical;
            overflow-y: scroll;
        }
        *, *:before, *:after {
            box-sizing: inherit;
        }
        body {
            margin:0;
            background: #fafafa;
        }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            const ui = SwaggerUIBundle({
                url: '/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                plugins: [
                    SwaggerUIBundle.plugins.DownloadUrl
                ],
                layout: "StandaloneLayout",
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`

	c.Set("Content-Type", "text/html")
	return c.SendString(htmlContent)
}

// Serve Swagger JSON specification
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	// Read the generated swagger.json file
	swaggerData, err := os.ReadFile("docs/swagger.json")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to load Swagger documentation",
			Code:  "SWAGGER_LOAD_ERROR",
		})
	}

	c.Set("Content-Type", "application/json")
	return c.Send(swaggerData)
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: "The requested resource was not found",
		Code:  "NOT_FOUND",
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Return JSON error response
	return c.Status(code).JSON(dto.ErrorResponse{
		Error: "An internal server error occurred",
		Code:  "INTERNAL_ERROR",
	})
}

// Helper functions

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// contains checks if a string contains a substring
func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}

// GetRouteDocumentation returns API documentation
func GetRouteDocumentation() []map[string]any {
	return []map[string]any{
		{
			"method":      "POST",
			"path":        "/auth/register",
			"description": "Create a new account and return an access token",
			"parameters": map[string]any{
				"email":    "string (required) - Email address",
				"password": "string (required) - Password, at least 8 characters",
			},
		},
		{
			"method":      "POST",
			"path":        "/auth/login",
			"description": "Authenticate with email and password",
			"parameters": map[string]any{
				"email":    "string (required) - Email address",
				"password": "string (required) - Password",
			},
		},
		{
			"method":      "GET",
			"path":        "/auth/me",
			"description": "Return the authenticated account's profile and monthly usage",
			"parameters":  map[string]any{},
		},
		{
			"method":      "GET",
			"path":        "/search",
			"description": "Search for business leads around a location",
			"parameters": map[string]any{
				"type":     "string (required) - Business type, e.g. restaurant",
				"location": "string (required) - Location to search around",
				"limit":    "number (optional) - Maximum leads to return, 1-25 (default 10)",
				"details":  "boolean (optional) - Fetch phone and website per lead (default true)",
			},
		},
		{
			"method":      "GET",
			"path":        "/search/export",
			"description": "Search for business leads and download them as an Excel file",
			"parameters": map[string]any{
				"type":     "string (required) - Business type, e.g. restaurant",
				"location": "string (required) - Location to search around",
				"limit":    "number (optional) - Maximum leads to return, 1-25 (default 10)",
				"details":  "boolean (optional) - Fetch phone and website per lead (default true)",
			},
		},
		{
			"method":      "GET",
			"path":        "/search/history",
			"description": "List the authenticated account's past searches",
			"parameters": map[string]any{
				"page":      "number (optional) - Page number (default 1)",
				"page_size": "number (optional) - Items per page, max 100 (default 20)",
			},
		},
		{
			"method":      "GET",
			"path":        "/",
			"description": "Liveness endpoint",
			"parameters":  map[string]any{},
		},
	}
}
