package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/api/handlers/image"
	"github.com/aliskhannn/image-compressor/internal/api/router"
	"github.com/aliskhannn/image-compressor/internal/api/server"
	"github.com/aliskhannn/image-compressor/internal/codec"
	"github.com/aliskhannn/image-compressor/internal/config"
	"github.com/aliskhannn/image-compressor/internal/infra/kafka/consumer"
	"github.com/aliskhannn/image-compressor/internal/infra/kafka/producer"
	imagemsg "github.com/aliskhannn/image-compressor/internal/kafka/handlers/image"
	"github.com/aliskhannn/image-compressor/internal/model"
	"github.com/aliskhannn/image-compressor/internal/processor"
	"github.com/aliskhannn/image-compressor/internal/queue"
	imagerepo "github.com/aliskhannn/image-compressor/internal/repository/image"
	imagesvc "github.com/aliskhannn/image-compressor/internal/service/image"
	"github.com/aliskhannn/image-compressor/internal/storage/file"
	"github.com/aliskhannn/image-compressor/internal/storage/preview"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yml"
	}
	cfg := config.MustLoad(configPath)

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		zlog.Logger.Warn().Str("level", cfg.Logging.Level).Msg("unknown log level, keeping default")
	}

	defaultFormat, err := model.ParseFormat(cfg.Pipeline.DefaultFormat)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid default format")
	}

	// Retry strategy for Kafka and other external calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Pipeline: image collection, codecs, processor and the bounded queue.
	repo := imagerepo.NewRepository()
	previews := preview.NewRegistry()
	dispatcher := codec.NewDispatcher(codec.NewCache(codec.DefaultLoader))
	imageProcessor := processor.New(dispatcher, repo, previews)
	manager := queue.New(ctx, imageProcessor, repo, cfg.Pipeline.Concurrency)

	var opts []imagesvc.Option

	// Initialize file storage (MinIO) if enabled.
	var storage *file.Storage
	if cfg.Storage.Enabled {
		storage, err = file.NewStorage(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.BucketName, cfg.Storage.UseSSL)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
		}
		opts = append(opts, imagesvc.WithStorage(storage))
	}

	// Kafka producer for processed image events.
	var p *producer.Producer
	if cfg.Kafka.Enabled {
		p = producer.New(&cfg.Kafka, strategy)
		opts = append(opts, imagesvc.WithPublisher(p))
	}

	service := imagesvc.NewService(repo, manager, previews, opts...)

	// Kafka consumer for images submitted through object storage.
	var (
		c  *consumer.Consumer
		wg sync.WaitGroup
	)
	if cfg.Kafka.Enabled && storage != nil {
		submittedHandler := imagemsg.NewSubmittedHandler(service, string(defaultFormat))
		c = consumer.New(&cfg.Kafka, strategy, submittedHandler)

		wg.Add(1)
		go c.Consume(ctx, &wg)
	} else if cfg.Kafka.Enabled {
		zlog.Logger.Warn().Msg("kafka submissions require storage, consumer is not started")
	}

	// Start HTTP server in a separate goroutine.
	imgHandler := image.NewHandler(service, defaultFormat, cfg.Pipeline.MaxUploadSize)
	r := router.Setup(imgHandler)
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.HTTPPort).Msg("starting server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Wait for Kafka consumer goroutine to finish.
	wg.Wait()

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Stop intake, let queued images finish, then flush exports and events.
	manager.Close()
	service.Close()

	// Close Kafka producer and consumer clients.
	if p != nil {
		if err = p.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
		}
	}
	if c != nil {
		if err = c.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
		}
	}
}
