package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ordinalscale/contract-vault/constants"
	"github.com/ordinalscale/contract-vault/internal/common"
	"github.com/ordinalscale/contract-vault/internal/pipeline"
	"github.com/ordinalscale/contract-vault/internal/repository"
)

// uploadContract accepts one PDF as multipart field "file" and drives it
// through the ingestion pipeline. On success it answers with the dashboard
// detail location for the new contract. Stage failures are logged with their
// classification but the response stays generic; the client just sees the
// control return to its idle, re-submittable state.
func (s *Server) uploadContract(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	// Intake validates nothing beyond the MIME type.
	declared := fh.Header.Get("Content-Type")
	if declared != constants.PDFContentType && !constants.IsAllowedExt(filepath.Ext(fh.Filename)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only application/pdf is accepted"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}

	id, err := s.pipeline.Ingest(c.Request.Context(), filepath.Base(fh.Filename), data)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": "an upload is already in progress"})
		case isNotReady(err):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "renderer is still initializing"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		}
		return
	}

	location := "/dashboard/" + id.String()
	c.Header("Location", location)
	c.JSON(http.StatusCreated, gin.H{"id": id.String(), "location": location})
}

func isNotReady(err error) bool {
	var se *pipeline.StageError
	return errors.As(err, &se) && se.Kind == pipeline.KindRenderingNotReady
}

type contractResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path"`
	OCRText     string `json:"ocr_text"`
	UploadedAt  string `json:"uploaded_at"`
}

func toContractResponse(c *repository.Contract) contractResponse {
	return contractResponse{
		ID:          c.ID.String(),
		FileName:    c.FileName,
		StoragePath: c.StoragePath,
		OCRText:     c.OCRText,
		UploadedAt:  c.UploadedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) getContract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a UUID"})
		return
	}

	rec, err := s.contracts.GetByID(c.Request.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "contract not found"})
		return
	}
	if err != nil {
		s.logger.Error("contract lookup failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, toContractResponse(rec))
}

func (s *Server) listContracts(c *gin.Context) {
	recs, err := s.contracts.List(c.Request.Context())
	if err != nil {
		s.logger.Error("contract list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	out := make([]contractResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toContractResponse(rec))
	}
	c.JSON(http.StatusOK, gin.H{"contracts": out})
}

func (s *Server) exportContracts(c *gin.Context) {
	data, err := s.exporter.ContractsXLSX(c.Request.Context())
	if err != nil {
		s.logger.Error("contract export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="contracts.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
