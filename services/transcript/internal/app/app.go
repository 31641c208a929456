package app

import (
	"context"
	"fmt"

	"transcriptvault/pkg/engine"
	"transcriptvault/pkg/queue"
	"transcriptvault/pkg/storage"
	"transcriptvault/pkg/store"
)

// Config holds runtime configuration for the transcript service core.
// Index and Blobs may be pre-wired (tests); otherwise they are built from
// the connection settings.
type Config struct {
	DatabaseURL        string
	Index              store.Index
	Blobs              storage.BlobStore
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool
	BlobKeyPrefix      string
	RedisAddr          string
	RedisPassword      string
	OrphanStream       string
	SweeperConcurrency int
}

// App wires the storage engine to its backing stores and the orphan
// sweeper.
type App struct {
	Engine   *engine.Engine
	blobs    storage.BlobStore
	orphans  *queue.OrphanQueue
	sweepers int
}

// New constructs the application. The orphan queue is optional and only
// wired when a redis address is configured.
func New(cfg Config) (*App, error) {
	blobs := cfg.Blobs
	if blobs == nil {
		var err error
		blobs, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init blob store: %w", err)
		}
	}
	index := cfg.Index
	if index == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		index, err = store.NewGormIndex(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init metadata index: %w", err)
		}
	}

	var orphans *queue.OrphanQueue
	if cfg.RedisAddr != "" {
		stream := cfg.OrphanStream
		if stream == "" {
			stream = "transcript:orphans"
		}
		var err error
		orphans, err = queue.New(queue.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   stream,
		})
		if err != nil {
			return nil, fmt.Errorf("init orphan queue: %w", err)
		}
	}

	engineCfg := engine.Config{
		Index:     index,
		Blobs:     blobs,
		KeyPrefix: cfg.BlobKeyPrefix,
	}
	if orphans != nil {
		engineCfg.Orphans = orphans
	}
	eng, err := engine.New(engineCfg)
	if err != nil {
		return nil, err
	}

	sweepers := cfg.SweeperConcurrency
	if sweepers <= 0 {
		sweepers = 1
	}
	return &App{Engine: eng, blobs: blobs, orphans: orphans, sweepers: sweepers}, nil
}

// Init idempotently ensures the metadata schema exists.
func (a *App) Init(ctx context.Context) error {
	return a.Engine.InitSchema(ctx)
}

// StartSweeper launches the orphan blob sweeper when a queue is wired.
func (a *App) StartSweeper(ctx context.Context) {
	if a.orphans == nil {
		return
	}
	a.orphans.Start(ctx, a.sweepers, func(ctx context.Context, key string) error {
		return a.blobs.Delete(ctx, key)
	})
}
