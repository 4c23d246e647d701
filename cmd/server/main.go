package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/pdf-processor/api/handlers"
	"github.com/feichai0017/pdf-processor/api/middleware"
	"github.com/feichai0017/pdf-processor/api/routes"
	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/internal/agent"
	"github.com/feichai0017/pdf-processor/internal/service/document"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/queue"
	"github.com/feichai0017/pdf-processor/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// init logger
	log, err := logger.NewLogger(logger.WithConfig(cfg.Logging))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStorage(ctx, storage.StorageType(cfg.Output.Storage), cfg, cfg.Output.Dir, log)
	if err != nil {
		log.Fatal("Failed to create storage", logger.Error(err))
	}

	q := queue.NewAsynqQueue(cfg.Queue)
	defer q.Close()
	if err := q.Ping(ctx); err != nil {
		log.Warn("Redis is not reachable, async endpoints will fail", logger.Error(err))
	}

	docService, err := document.GetService(cfg, q, store, log)
	if err != nil {
		log.Fatal("Failed to get document service", logger.Error(err))
	}

	h := handlers.NewHandlers(docService, agent.Modes(), cfg.Server.MaxSyncSize, log)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log.Named("http")))
	r.MaxMultipartMemory = 32 << 20
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
			stop()
		}
	}()

	go cleanupLoop(ctx, docService, cfg.Queue.StatusTTL, log)

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
		os.Exit(1)
	}
}

// cleanupLoop drops stored uploads and results older than the status TTL.
func cleanupLoop(ctx context.Context, svc *document.DocumentService, ttl time.Duration, log logger.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.CleanupTasks(ctx); err != nil {
				log.Warn("Cleanup failed", logger.Error(err))
			}
		}
	}
}
