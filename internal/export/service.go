package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ordinalscale/contract-vault/internal/repository"
)

// Service is a tiny façade over the contracts repository that produces XLSX
// bytes for dashboard exports.
type Service struct {
	contracts repository.ContractRepository
	logger    *slog.Logger
}

func NewService(contracts repository.ContractRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{contracts: contracts, logger: logger}
}

// ContractsXLSX returns an XLSX workbook (as bytes) listing every contract,
// newest first. The extracted text column is truncated to keep cells within
// the spreadsheet limit.
func (s *Service) ContractsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.contracts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Contracts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"ID", "File Name", "Storage Path", "Uploaded At", "Extracted Text"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		values := []any{
			r.ID.String(),
			r.FileName,
			r.StoragePath,
			r.UploadedAt.UTC().Format(time.RFC3339),
			truncateCell(r.OCRText),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	// Drop the default sheet if it is not ours.
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("contracts exported",
		"rows", len(recs), "bytes", buf.Len(), "duration_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// Excel caps a cell at 32767 characters.
const maxCellLen = 32767

func truncateCell(s string) string {
	if len(s) <= maxCellLen {
		return s
	}
	return s[:maxCellLen]
}
