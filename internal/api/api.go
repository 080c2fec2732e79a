// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/stockpilot/internal/api/handlers"
	"github.com/andresuchdata/stockpilot/internal/api/middleware"
	"github.com/andresuchdata/stockpilot/internal/pipeline"
	"github.com/andresuchdata/stockpilot/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Uploads   *service.UploadService
	Analytics *service.AnalyticsService
	Drive     handlers.DriveSource // nil when Drive is not configured
	Importer  *pipeline.Importer
}

type RouterConfig struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	DriveFolderID  string
}

func NewRouter(services *Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(cfg.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")
	apiGroup.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if services != nil {
		if services.Uploads != nil {
			uploadHandler := handlers.NewUploadHandler(services.Uploads, cfg.MaxUploadBytes)
			apiGroup.POST("/uploads/:kind", uploadHandler.Upload)
			apiGroup.DELETE("/records", uploadHandler.Clear)
		}

		if services.Analytics != nil {
			analyticsHandler := handlers.NewAnalyticsHandler(services.Analytics)
			apiGroup.GET("/records/:kind", analyticsHandler.GetRecords)
			analyticsGroup := apiGroup.Group("/analytics")
			{
				analyticsGroup.GET("/dashboard", analyticsHandler.GetDashboard)
				analyticsGroup.GET("/products", analyticsHandler.GetProducts)
				analyticsGroup.GET("/risks", analyticsHandler.GetRisks)
				analyticsGroup.GET("/trends", analyticsHandler.GetTrends)
			}
		}

		if services.Drive != nil && services.Importer != nil {
			driveHandler := handlers.NewDriveHandler(services.Drive, services.Importer, cfg.DriveFolderID)
			driveGroup := apiGroup.Group("/drive")
			{
				driveGroup.GET("/files", driveHandler.ListFiles)
				driveGroup.POST("/import", driveHandler.Import)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
