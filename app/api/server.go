package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, opts ServerOptions) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(requestIDMiddleware())

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\" %s\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
				param.Keys[requestIDKey],
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, opts)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, opts ServerOptions) {
	anime := r.Group("/api/anime")
	{
		anime.GET("/search", handler.Search)
		anime.GET("/random", handler.Random)
		anime.GET("/top", handler.Top)
		anime.GET("/season", handler.Season)
	}

	r.GET("/health", handler.GetHealth)

	// Cache administration (conditionally enabled with authentication)
	if opts.APIAccessKey != "" {
		admin := r.Group("/api/cache")
		admin.Use(authMiddleware(opts.APIAccessKey))
		{
			admin.GET("", handler.APIGetCache)
			admin.DELETE("", handler.APIPurgeCache)
		}
		slog.Info("Cache API enabled with authentication")
	} else {
		slog.Info("Cache API disabled (API_ACCESS_KEY not set)")
	}

	if opts.PublicDir != "" {
		files := http.FileServer(http.Dir(opts.PublicDir))
		r.StaticFile("/", filepath.Join(opts.PublicDir, "index.html"))
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
				return
			}
			files.ServeHTTP(c.Writer, c.Request)
		})
		slog.Info("Serving static files", "dir", opts.PublicDir)
		return
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"search": "/api/anime/search?query=<title>",
			"random": "/api/anime/random?count=<n>",
			"top":    "/api/anime/top?limit=<n>&offset=<n>&rank=<n>",
			"season": "/api/anime/season?year=<yyyy>&season=<winter|spring|summer|fall>",
			"health": "/health",
		}

		if opts.APIAccessKey != "" {
			endpoints["cache"] = "/api/cache (GET or DELETE, requires X-API-Key header)"
		}

		c.JSON(200, gin.H{
			"service":     "Anime Comb",
			"version":     handler.version,
			"description": "MyAnimeList catalog merged with shinden.pl community ratings",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled":       opts.APIAccessKey != "",
				"auth_required": opts.APIAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// requestIDMiddleware keeps an incoming X-Request-ID or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		// Also check Authorization header with Bearer prefix
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
