// Package app wires configuration into the running object graph shared by
// the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockpilot/internal/config"
	"github.com/andresuchdata/stockpilot/internal/drive"
	"github.com/andresuchdata/stockpilot/internal/ingest"
	"github.com/andresuchdata/stockpilot/internal/pipeline"
	"github.com/andresuchdata/stockpilot/internal/repository"
	"github.com/andresuchdata/stockpilot/internal/repository/postgres"
	redisrepo "github.com/andresuchdata/stockpilot/internal/repository/redis"
	"github.com/andresuchdata/stockpilot/internal/service"
	"github.com/andresuchdata/stockpilot/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type App struct {
	Config    *config.Config
	Records   *repository.RecordRepository
	Uploads   *service.UploadService
	Analytics *service.AnalyticsService
	Importer  *pipeline.Importer
	Storage   storage.ObjectStorage // nil unless S3 is configured
	Drive     *drive.Service        // nil unless Drive credentials are set

	closers []func() error
}

// New builds the store selected by STORE_BACKEND and everything on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, locker, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Records = repository.NewRecordRepository(store, cfg.Store.KeyPrefix)

	opts := []service.UploadOption{}
	if locker != nil {
		opts = append(opts, service.WithLocker(locker))
	}

	if cfg.Archive.Endpoint != "" && cfg.Archive.Bucket != "" {
		s3, err := storage.NewS3Client(cfg.Archive)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Storage = s3
		if cfg.Archive.Enabled {
			opts = append(opts, service.WithArchiver(storage.NewArchiver(s3, cfg.Archive.Prefix, cfg.App.Location())))
		}
	}

	ingestor := ingest.NewIngestor(cfg.App.Location())
	a.Uploads = service.NewUploadService(a.Records, ingestor, opts...)
	a.Analytics = service.NewAnalyticsService(a.Records)

	importCfg := pipeline.DefaultImportConfig()
	importCfg.WorkerCount = cfg.App.ImportWorkers
	a.Importer = pipeline.NewImporter(a.Uploads, importCfg)

	if cfg.Drive.CredentialsJSON != "" {
		svc, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Drive = svc
	}

	log.Info().
		Str("backend", cfg.Store.Backend).
		Bool("archive", cfg.Archive.Enabled).
		Bool("drive", a.Drive != nil).
		Msg("app initialized")

	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.KVStore, service.Locker, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case BackendRedis:
		client, err := redisrepo.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, client.Close)
		lockKey := cfg.Store.KeyPrefix + ":lock:merge"
		return redisrepo.NewStore(client), redisrepo.NewMergeLock(client, lockKey, cfg.Redis.LockTTL()), nil

	case BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		store := postgres.NewKVStore(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		return store, postgres.NewMergeLock(db, cfg.Store.KeyPrefix+":lock:merge"), nil

	case BackendMemory, "":
		return repository.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}
