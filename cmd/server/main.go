package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"voxbridge/internal/api"
	"voxbridge/internal/config"
	"voxbridge/internal/gateway"
	"voxbridge/internal/logger"
	"voxbridge/internal/similarity"
	"voxbridge/internal/storage"
	"voxbridge/internal/stt"
	"voxbridge/internal/translate"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.Log, api.ServiceName)
	if envErr != nil {
		logg.Debug("No .env file found, using environment variables")
	}

	// Release mode unless GIN_MODE says otherwise
	if cfg.Server.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.Server.GinMode)
	}

	transcriber, err := stt.CreateProvider(cfg.STT, logg)
	if err != nil {
		logg.Fatal("Failed to create STT provider", logger.Fields(logger.FieldError, err))
	}
	if local, ok := transcriber.(*stt.LocalProvider); ok {
		probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if !local.IsAvailable(probeCtx) {
			logg.Warn("Whisper server is not reachable yet", logger.Fields("url", cfg.STT.WhisperURL))
		}
		cancel()
	}

	translator, err := translate.CreateProvider(cfg.Translate, logg)
	if err != nil {
		logg.Fatal("Failed to create translate provider", logger.Fields(logger.FieldError, err))
	}

	scorer, err := similarity.CreateScorer(cfg.Similarity, logg)
	if err != nil {
		logg.Fatal("Failed to create similarity scorer", logger.Fields(logger.FieldError, err))
	}
	if ollama, ok := scorer.(*similarity.OllamaScorer); ok {
		probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if !ollama.IsAvailable(probeCtx) {
			logg.Warn("Ollama server is not reachable yet", logger.Fields("url", cfg.Similarity.OllamaURL))
		}
		cancel()
	}

	gw := gateway.New(gateway.Deps{
		Transcriber:   transcriber,
		Translator:    translator,
		Scorer:        scorer,
		Audio:         storage.NewTempAudio(cfg.Server.TempDir, storage.DefaultExt),
		ModelName:     cfg.Server.ModelName,
		EngineTimeout: cfg.Server.EngineTimeout,
		Logger:        logg,
	})

	r := api.NewRouter(api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodySize:    cfg.Server.MaxUploadSize,
	}, api.NewHandler(gw, logg), logg)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info("Server starting", logger.Fields(
			"addr", srv.Addr,
			"stt", transcriber.Name(),
			"translate", translator.Name(),
			"similarity", scorer.Name(),
			"model", cfg.Server.ModelName,
		))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("Server failed", logger.Fields(logger.FieldError, err))
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logg.Info("Shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logg.Error("Graceful shutdown failed", logger.Fields(logger.FieldError, err))
	}
	logg.Info("Server stopped")
}
