package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"transcriptvault/internal/util"
	"transcriptvault/services/transcript/internal/app"
	"transcriptvault/services/transcript/internal/config"
	"transcriptvault/services/transcript/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:        cfg.DatabaseURL,
		MinioEndpoint:      cfg.MinioEndpoint,
		MinioAccessKey:     cfg.MinioAccessKey,
		MinioSecretKey:     cfg.MinioSecretKey,
		MinioBucket:        cfg.MinioBucket,
		MinioUseSSL:        cfg.MinioUseSSL,
		BlobKeyPrefix:      cfg.BlobKeyPrefix,
		RedisAddr:          cfg.RedisAddr,
		RedisPassword:      cfg.RedisPassword,
		OrphanStream:       cfg.OrphanStream,
		SweeperConcurrency: cfg.SweeperConcurrency,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := appCore.Init(ctx); err != nil {
		log.Fatalf("failed to init schema: %v", err)
	}
	appCore.StartSweeper(ctx)

	httpServer := server.New(server.Config{App: appCore})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("transcript server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
