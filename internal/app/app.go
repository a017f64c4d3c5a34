package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/markdave123-py/docvault/internal/config"
	"github.com/markdave123-py/docvault/internal/core"
	db "github.com/markdave123-py/docvault/internal/core/database"
	"github.com/markdave123-py/docvault/internal/core/ingestion_engine"
	"github.com/markdave123-py/docvault/internal/core/llm"
	"github.com/markdave123-py/docvault/internal/core/mongodb"
	objectclient "github.com/markdave123-py/docvault/internal/core/object-client"
	"github.com/markdave123-py/docvault/internal/core/sqlite"
	"github.com/markdave123-py/docvault/internal/observability"
	"github.com/markdave123-py/docvault/internal/services"
)

type App struct {
	Store  core.Store
	Blobs  core.BlobStore
	Server *Server

	llm *llm.GeminiLLM
	log *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	store, err := newStore(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Metadata store initialized and ready.", "backend", cfg.MetadataBackend)

	blobs, err := newBlobStore(appCtx, cfg)
	if err != nil {
		_ = store.Close(context.Background())
		return nil, err
	}
	log.Info("Blob store initialized and ready.", "backend", cfg.BlobBackend)

	a := &App{Store: store, Blobs: blobs, log: log}

	opts := []services.Option{
		services.WithLogger(log),
		services.WithMetrics(observability.NewFileMetrics()),
	}
	if cfg.AIAPIKey != "" {
		a.llm, err = llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("couldn't initialize the summarizer, %w", err)
		}
		opts = append(opts, services.WithSummarizer(a.llm))
	} else {
		log.Warn("GEMINI_API_KEY not set, summaries are disabled")
	}

	files := services.NewDocumentService(store, blobs, ingestion_engine.NewEngine(cfg.TempDir), opts...)
	users := services.NewUserService(store)

	a.Server = NewServer(cfg, Routes{
		Files:    files,
		Accounts: users,
		Gatherer: prometheus.DefaultGatherer,
		Log:      log,
	})
	return a, nil
}

func newStore(ctx context.Context, cfg *config.Config) (core.Store, error) {
	switch cfg.MetadataBackend {
	case config.BackendMongo:
		return mongodb.NewMongoStore(ctx, cfg)
	case config.BackendSQLite:
		return sqlite.NewSQLiteStore(ctx, cfg)
	case config.BackendPostgres:
		return db.NewDatabaseClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", cfg.MetadataBackend)
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (core.BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BlobS3:
		return objectclient.NewS3Client(ctx, cfg)
	case config.BlobFS:
		return objectclient.NewFSClient(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func (a *App) Close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Store.Close(ctx); err != nil {
			a.log.Warn("closing metadata store", "error", err)
		}
	}
}
