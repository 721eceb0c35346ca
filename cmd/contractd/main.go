package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ordinalscale/contract-vault/gen/ent"
	"github.com/ordinalscale/contract-vault/internal/blobstore"
	"github.com/ordinalscale/contract-vault/internal/common"
	"github.com/ordinalscale/contract-vault/internal/export"
	"github.com/ordinalscale/contract-vault/internal/pipeline"
	"github.com/ordinalscale/contract-vault/internal/raster"
	"github.com/ordinalscale/contract-vault/internal/recognize"
	repo "github.com/ordinalscale/contract-vault/internal/repository"
	"github.com/ordinalscale/contract-vault/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, pool, ping, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(client, pool, logger)

	if pool != nil {
		if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
	}

	store, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init blob store", "error", err)
		os.Exit(1)
	}

	renderer := raster.NewRenderer(logger)
	engine := recognize.NewTesseractEngine(cfg.OCR.TessdataDir, logger)
	contracts := repo.NewContractRepository(client, logger)

	ctrl := pipeline.NewController(pipeline.Config{
		Scale:        cfg.Raster.Scale,
		Language:     cfg.OCR.Language,
		CacheControl: cfg.Storage.CacheControl,
	}, store, renderer, engine, contracts, logger)

	exporter := export.NewService(contracts, logger)
	srv := server.New(ctrl, contracts, exporter, ping, logger)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}

// openDatabase opens Postgres through pgx, or an embedded SQLite file when
// DB_URL carries the sqlite: prefix (local development). The returned Pinger
// targets whichever backend was opened.
func openDatabase(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*ent.Client, *pgxpool.Pool, server.Pinger, error) {
	if path, ok := strings.CutPrefix(cfg.Database.DSN, "sqlite:"); ok {
		client, sqlDB, err := repo.OpenSQLite(path)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := repo.EnsureSchema(ctx, client); err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		logger.Info("using embedded sqlite database", "path", path)
		ping := func(ctx context.Context) error { return sqlDB.PingContext(ctx) }
		return client, nil, ping, nil
	}
	client, pool, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	ping := func(ctx context.Context) error {
		return repo.HealthCheck(ctx, pool, 3*time.Second, logger)
	}
	return client, pool, ping, nil
}

// openBlobStore builds the archival store: S3 by default, in-memory when
// STORAGE_DRIVER=memory (local development only; archived blobs vanish on
// restart).
func openBlobStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (blobstore.Store, error) {
	if os.Getenv("STORAGE_DRIVER") == "memory" {
		logger.Warn("using in-memory blob store")
		return blobstore.NewMemoryStore(), nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Storage.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Storage.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return blobstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, logger), nil
}
