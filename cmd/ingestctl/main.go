package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ordinalscale/contract-vault/gen/ent"
	"github.com/ordinalscale/contract-vault/internal/blobstore"
	"github.com/ordinalscale/contract-vault/internal/common"
	"github.com/ordinalscale/contract-vault/internal/pipeline"
	"github.com/ordinalscale/contract-vault/internal/raster"
	"github.com/ordinalscale/contract-vault/internal/recognize"
	repo "github.com/ordinalscale/contract-vault/internal/repository"
)

// ingestctl pushes one local PDF through the full pipeline and prints the
// resulting contract id.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "ingestctl <path-to-pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	os.Exit(run(ctx, cfg, logger, filepath.Base(path), data))
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger, name string, data []byte) int {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("init blob store", "error", err)
		return 1
	}

	client, pool, err := openDB(ctx, cfg, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		return 1
	}
	defer repo.Close(client, pool, logger)

	contracts := repo.NewContractRepository(client, logger)
	renderer := raster.NewRenderer(logger)
	engine := recognize.NewTesseractEngine(cfg.OCR.TessdataDir, logger)

	ctrl := pipeline.NewController(pipeline.Config{
		Scale:        cfg.Raster.Scale,
		Language:     cfg.OCR.Language,
		CacheControl: cfg.Storage.CacheControl,
	}, store, renderer, engine, contracts, logger)

	if err := renderer.WaitReady(ctx); err != nil {
		logger.Error("renderer initialization", "error", err)
		return 1
	}

	start := time.Now()
	id, err := ctrl.Ingest(ctx, name, data)
	if err != nil {
		logger.Error("ingestion failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return 1
	}

	logger.Info("ingestion OK",
		"id", id,
		"detail", "/dashboard/"+id.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return 0
}

func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (blobstore.Store, error) {
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

func openDB(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*ent.Client, *pgxpool.Pool, error) {
	if path, ok := strings.CutPrefix(cfg.Database.DSN, "sqlite:"); ok {
		client, _, err := repo.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx, client); err != nil {
			client.Close()
			return nil, nil, err
		}
		return client, nil, nil
	}
	return repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
}
