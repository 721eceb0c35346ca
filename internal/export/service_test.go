package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ordinalscale/contract-vault/internal/common"
	"github.com/ordinalscale/contract-vault/internal/repository"
)

type stubContracts struct {
	list []*repository.Contract
}

func (s *stubContracts) Insert(context.Context, *repository.Contract) error { return nil }

func (s *stubContracts) GetByID(context.Context, uuid.UUID) (*repository.Contract, error) {
	return nil, common.ErrNotFound
}

func (s *stubContracts) List(context.Context) ([]*repository.Contract, error) {
	return s.list, nil
}

func TestContractsXLSX(t *testing.T) {
	id := uuid.New()
	svc := NewService(&stubContracts{list: []*repository.Contract{
		{
			ID:          id,
			FileName:    "contract.pdf",
			StoragePath: id.String() + "/contract.pdf",
			OCRText:     "Hello World",
			UploadedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}}, nil)

	data, err := svc.ContractsXLSX(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Contracts")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[1][0] != id.String() || rows[1][1] != "contract.pdf" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
}

func TestTruncateCell(t *testing.T) {
	long := make([]byte, maxCellLen+100)
	for i := range long {
		long[i] = 'a'
	}
	if got := truncateCell(string(long)); len(got) != maxCellLen {
		t.Fatalf("truncated length = %d, want %d", len(got), maxCellLen)
	}
	if got := truncateCell("short"); got != "short" {
		t.Fatalf("short strings must pass through, got %q", got)
	}
}
