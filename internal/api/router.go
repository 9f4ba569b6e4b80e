package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/heatmap-viewer-go/internal/auth"
	"github.com/jengzang/heatmap-viewer-go/internal/config"
	"github.com/jengzang/heatmap-viewer-go/internal/handler"
	"github.com/jengzang/heatmap-viewer-go/internal/kafkabus"
	"github.com/jengzang/heatmap-viewer-go/internal/middleware"
	"github.com/jengzang/heatmap-viewer-go/internal/observability"
	"github.com/jengzang/heatmap-viewer-go/internal/repository"
	"github.com/jengzang/heatmap-viewer-go/internal/service"
)

// Server 持有路由以及需要在退出时释放的组件
type Server struct {
	Engine   *gin.Engine
	Datasets *service.DatasetService
	Viewers  *service.ViewerService
	Metrics  *observability.Metrics

	limiter *middleware.RateLimiter
	bus     kafkabus.Publisher
}

// New 组装服务并设置路由
func New(cfg *config.Config, db *sql.DB, log *logrus.Logger) *Server {
	metrics := observability.NewMetrics()
	bus := kafkabus.New(cfg.Kafka, log, metrics.PublishError)

	datasets := service.NewDatasetService(repository.NewDatasetRepository(db), cfg.MaxSampleCount, log)
	viewers := service.NewViewerService(datasets, service.ViewerOptions{
		Viewer:       cfg.Viewer(),
		TTL:          cfg.SessionTTL,
		MaxViewers:   cfg.MaxViewers,
		MaxContainer: cfg.MaxContainer,
		Signer:       auth.NewSigner(cfg.JWTSecret, cfg.SessionTTL),
		Publisher:    bus,
		Metrics:      metrics,
		Logger:       log,
	})
	viewers.Start(sweepInterval(cfg.SessionTTL))

	s := &Server{
		Datasets: datasets,
		Viewers:  viewers,
		Metrics:  metrics,
		limiter:  middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		bus:      bus,
	}
	s.Engine = s.setupRouter(log)
	return s
}

func sweepInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d > time.Second {
		return d
	}
	return time.Second
}

// Close 关闭所有会话和后台任务
func (s *Server) Close() error {
	s.Viewers.Shutdown()
	s.limiter.Stop()
	return s.bus.Close()
}

func (s *Server) setupRouter(log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log), s.Metrics.Middleware())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Heatmap viewer API is running",
			"viewers": s.Viewers.Len(),
		})
	})
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	datasetHandler := handler.NewDatasetHandler(s.Datasets)
	viewerHandler := handler.NewViewerHandler(s.Viewers)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(s.limiter.Handler())
	{
		// 数据集
		datasets := api.Group("/datasets")
		{
			datasets.GET("", datasetHandler.List)
			datasets.POST("", datasetHandler.Create)
			datasets.POST("/generate", datasetHandler.Generate)
			datasets.GET("/:id", datasetHandler.Get)
			datasets.DELETE("/:id", datasetHandler.Delete)
			datasets.GET("/:id/samples", datasetHandler.Samples)
			datasets.GET("/:id/summary", datasetHandler.Summary)
		}

		// 热力图视图会话
		api.POST("/viewers", viewerHandler.Open)
		viewers := api.Group("/viewers/:id", middleware.ViewerAuth(s.Viewers))
		{
			viewers.GET("", viewerHandler.Get)
			viewers.PUT("/size", viewerHandler.Resize)
			viewers.PUT("/flags", viewerHandler.SetFlags)
			viewers.POST("/events", viewerHandler.Events)
			viewers.GET("/frame", viewerHandler.Frame)
			viewers.GET("/frame.png", viewerHandler.FramePNG)
			viewers.GET("/selection", viewerHandler.Selection)
			viewers.GET("/stream", viewerHandler.Stream)
			viewers.DELETE("", viewerHandler.Close)
		}
	}

	return r
}
