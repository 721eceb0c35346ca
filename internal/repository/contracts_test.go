package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ordinalscale/contract-vault/gen/ent"
	"github.com/ordinalscale/contract-vault/internal/common"
)

func newTestRepo(t *testing.T) ContractRepository {
	t.Helper()
	client, _, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return NewContractRepository(client, nil)
}

func TestContractInsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id := uuid.New()
	in := &Contract{
		ID:          id,
		FileName:    "contract.pdf",
		StoragePath: id.String() + "/contract.pdf",
		OCRText:     "Hello World",
		UploadedAt:  time.Now().UTC(),
	}
	if err := repo.Insert(ctx, in); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != id || got.FileName != in.FileName || got.StoragePath != in.StoragePath || got.OCRText != in.OCRText {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestContractDuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	c := &Contract{ID: uuid.New(), FileName: "a.pdf", StoragePath: "x/a.pdf", UploadedAt: time.Now()}
	if err := repo.Insert(ctx, c); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := repo.Insert(ctx, c)
	if err == nil {
		t.Fatal("expected primary-key violation on duplicate id")
	}
	if !ent.IsConstraintError(err) {
		t.Fatalf("expected a constraint error, got %v", err)
	}
}

func TestContractGetMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestContractListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"old.pdf", "mid.pdf", "new.pdf"} {
		c := &Contract{
			ID:          uuid.New(),
			FileName:    name,
			StoragePath: "k/" + name,
			UploadedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 contracts, got %d", len(list))
	}
	if list[0].FileName != "new.pdf" || list[2].FileName != "old.pdf" {
		t.Fatalf("expected newest-first ordering, got %s..%s", list[0].FileName, list[2].FileName)
	}
}
