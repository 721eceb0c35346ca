package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/ordinalscale/contract-vault/gen/ent"
	"github.com/ordinalscale/contract-vault/gen/ent/contract"
	"github.com/ordinalscale/contract-vault/internal/common"
)

// Contract is one persisted ingestion record. The id doubles as the join key
// to the archived blob (storage_path is {id}/{file_name}).
type Contract struct {
	ID          uuid.UUID
	FileName    string
	StoragePath string
	OCRText     string
	UploadedAt  time.Time
}

type ContractRepository interface {
	// Insert writes the record in a single atomic statement; all fields are
	// populated up front so partial records are never visible.
	Insert(ctx context.Context, c *Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	List(ctx context.Context) ([]*Contract, error)
}

type contractRepository struct {
	client *ent.Client
	logger *slog.Logger
}

func NewContractRepository(client *ent.Client, logger *slog.Logger) ContractRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &contractRepository{client: client, logger: logger}
}

func (r *contractRepository) Insert(ctx context.Context, c *Contract) error {
	_, err := r.client.Contract.Create().
		SetID(c.ID).
		SetFileName(c.FileName).
		SetStoragePath(c.StoragePath).
		SetOcrText(c.OCRText).
		SetUploadedAt(c.UploadedAt.UTC()).
		Save(ctx)
	if err != nil {
		r.logger.Error("contract insert failed", "id", c.ID, "file_name", c.FileName, "error", err)
		return fmt.Errorf("insert contract: %w", err)
	}
	r.logger.Info("contract inserted", "id", c.ID, "file_name", c.FileName, "storage_path", c.StoragePath)
	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, id uuid.UUID) (*Contract, error) {
	rec, err := r.client.Contract.Get(ctx, id)
	if ent.IsNotFound(err) {
		return nil, fmt.Errorf("contract %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("contract lookup failed", "id", id, "error", err)
		return nil, fmt.Errorf("get contract: %w", err)
	}
	return toContract(rec), nil
}

func (r *contractRepository) List(ctx context.Context) ([]*Contract, error) {
	recs, err := r.client.Contract.Query().
		Order(contract.ByUploadedAt(entsql.OrderDesc())).
		All(ctx)
	if err != nil {
		r.logger.Error("contract list failed", "error", err)
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	out := make([]*Contract, len(recs))
	for i, rec := range recs {
		out[i] = toContract(rec)
	}
	return out, nil
}

func toContract(rec *ent.Contract) *Contract {
	return &Contract{
		ID:          rec.ID,
		FileName:    rec.FileName,
		StoragePath: rec.StoragePath,
		OCRText:     rec.OcrText,
		UploadedAt:  rec.UploadedAt,
	}
}
