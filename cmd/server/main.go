package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/heatmap-viewer-go/internal/api"
	"github.com/jengzang/heatmap-viewer-go/internal/config"
	"github.com/jengzang/heatmap-viewer-go/internal/database"
	"github.com/jengzang/heatmap-viewer-go/internal/logging"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load config: ", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.Fatal("Failed to create logger: ", err)
	}
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath, Logger: log}); err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close()

	// 初始化路由
	server := api.New(cfg, database.GetDB(), log)
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Request contexts end with ctx so open event streams finish on shutdown.
	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           server.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	// 启动服务器
	log.WithField("addr", cfg.Port).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server: ", err)
	}
	<-done
	log.Info("server stopped")
}
