package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/internal/service/document"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/queue"
	"github.com/feichai0017/pdf-processor/pkg/storage"
	"github.com/feichai0017/pdf-processor/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(logger.WithConfig(cfg.Logging))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewStorage(ctx, storage.StorageType(cfg.Output.Storage), cfg, cfg.Output.Dir, log)
	if err != nil {
		log.Error("Failed to create storage", logger.Error(err))
		os.Exit(1)
	}

	q := queue.NewAsynqQueue(cfg.Queue)
	defer q.Close()

	docService, err := document.GetService(cfg, q, store, log)
	if err != nil {
		log.Error("Failed to create document service", logger.Error(err))
		os.Exit(1)
	}

	documentWorker := worker.NewDocumentWorker(&worker.Config{
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.Queue.RedisPassword,
		RedisDB:       cfg.Queue.RedisDB,
		Concurrency:   cfg.Queue.Concurrency,
		Queues:        queue.QueueWeights,
	}, docService, log.Named("worker"))

	if err := documentWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker started", logger.Int("concurrency", cfg.Queue.Concurrency))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	documentWorker.Stop()
	log.Info("Worker stopped")
}
