package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ordinalscale/contract-vault/constants"
	"github.com/ordinalscale/contract-vault/internal/common"
	"github.com/ordinalscale/contract-vault/internal/pipeline"
	"github.com/ordinalscale/contract-vault/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeIngestor struct {
	id      uuid.UUID
	err     error
	status  constants.Status
	ready   bool
	calls   int
	gotName string
}

func (f *fakeIngestor) Ingest(_ context.Context, name string, _ []byte) (uuid.UUID, error) {
	f.calls++
	f.gotName = name
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return f.id, nil
}

func (f *fakeIngestor) Status() constants.Status { return f.status }
func (f *fakeIngestor) Ready() bool              { return f.ready }
func (f *fakeIngestor) CanSubmit() bool          { return f.ready && f.status == constants.StatusIdle }

type fakeContracts struct {
	byID map[uuid.UUID]*repository.Contract
	list []*repository.Contract
}

func (f *fakeContracts) Insert(context.Context, *repository.Contract) error { return nil }

func (f *fakeContracts) GetByID(_ context.Context, id uuid.UUID) (*repository.Contract, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeContracts) List(context.Context) ([]*repository.Contract, error) {
	return f.list, nil
}

type fakeExporter struct {
	data []byte
	err  error
}

func (f *fakeExporter) ContractsXLSX(context.Context) ([]byte, error) {
	return f.data, f.err
}

func newTestServer(ing *fakeIngestor, contracts *fakeContracts) *gin.Engine {
	if contracts == nil {
		contracts = &fakeContracts{}
	}
	srv := New(ing, contracts, &fakeExporter{data: []byte("PK")}, nil, nil)
	return srv.Router()
}

func pdfUpload(t *testing.T, filename, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func TestUploadContract(t *testing.T) {
	id := uuid.New()
	ing := &fakeIngestor{id: id, status: constants.StatusIdle, ready: true}
	router := newTestServer(ing, nil)

	body, ct := pdfUpload(t, "contract.pdf", "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/contracts", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	wantLoc := "/dashboard/" + id.String()
	if got := rec.Header().Get("Location"); got != wantLoc {
		t.Fatalf("Location = %q, want %q", got, wantLoc)
	}
	if ing.gotName != "contract.pdf" {
		t.Fatalf("ingested name = %q", ing.gotName)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	ing := &fakeIngestor{status: constants.StatusIdle, ready: true}
	router := newTestServer(ing, nil)

	body, ct := pdfUpload(t, "notes.txt", "text/plain")
	req := httptest.NewRequest(http.MethodPost, "/contracts", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ing.calls != 0 {
		t.Fatal("pipeline must not run for a rejected MIME type")
	}
}

func TestUploadMissingFile(t *testing.T) {
	router := newTestServer(&fakeIngestor{ready: true, status: constants.StatusIdle}, nil)

	req := httptest.NewRequest(http.MethodPost, "/contracts", bytes.NewBufferString(""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadBusy(t *testing.T) {
	ing := &fakeIngestor{err: pipeline.ErrBusy, status: constants.StatusUploading, ready: true}
	router := newTestServer(ing, nil)

	body, ct := pdfUpload(t, "contract.pdf", "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/contracts", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestUploadRendererNotReady(t *testing.T) {
	ing := &fakeIngestor{
		err:    &pipeline.StageError{Kind: pipeline.KindRenderingNotReady, Stage: constants.StatusIdle, Err: errors.New("probe pending")},
		status: constants.StatusIdle,
	}
	router := newTestServer(ing, nil)

	body, ct := pdfUpload(t, "contract.pdf", "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/contracts", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestUploadStageFailureStaysGeneric(t *testing.T) {
	ing := &fakeIngestor{
		err:    &pipeline.StageError{Kind: pipeline.KindDuplicateKey, Stage: constants.StatusUploading, Err: errors.New("exists")},
		status: constants.StatusIdle,
		ready:  true,
	}
	router := newTestServer(ing, nil)

	body, ct := pdfUpload(t, "contract.pdf", "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/contracts", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	// The classification is diagnostics only; the response must not leak it.
	if bytes.Contains(rec.Body.Bytes(), []byte("DUPLICATE")) {
		t.Fatalf("response leaked failure kind: %s", rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	ing := &fakeIngestor{status: constants.StatusRecognizing, ready: true}
	router := newTestServer(ing, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got struct {
		Status    string `json:"status"`
		Label     string `json:"label"`
		CanSubmit bool   `json:"can_submit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "RECOGNIZING" || got.Label != "Recognizing..." {
		t.Fatalf("unexpected status payload: %+v", got)
	}
	if got.CanSubmit {
		t.Fatal("submit must be disabled while recognizing")
	}
}

func TestGetContract(t *testing.T) {
	id := uuid.New()
	contracts := &fakeContracts{byID: map[uuid.UUID]*repository.Contract{
		id: {
			ID:          id,
			FileName:    "contract.pdf",
			StoragePath: id.String() + "/contract.pdf",
			OCRText:     "Hello World",
			UploadedAt:  time.Now(),
		},
	}}
	router := newTestServer(&fakeIngestor{ready: true, status: constants.StatusIdle}, contracts)

	req := httptest.NewRequest(http.MethodGet, "/contracts/"+id.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got contractResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != id.String() || got.OCRText != "Hello World" {
		t.Fatalf("unexpected payload: %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/contracts/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing contract status = %d, want 404", rec.Code)
	}
}

func TestExportContracts(t *testing.T) {
	router := newTestServer(&fakeIngestor{ready: true, status: constants.StatusIdle}, nil)

	req := httptest.NewRequest(http.MethodGet, "/contracts/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got == "" {
		t.Fatal("expected attachment disposition")
	}
}

func TestHealthz(t *testing.T) {
	srv := New(&fakeIngestor{ready: true, status: constants.StatusIdle}, &fakeContracts{}, &fakeExporter{},
		func(context.Context) error { return errors.New("db down") }, nil)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
