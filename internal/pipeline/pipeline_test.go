package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ordinalscale/contract-vault/constants"
	"github.com/ordinalscale/contract-vault/internal/blobstore"
	"github.com/ordinalscale/contract-vault/internal/raster"
	"github.com/ordinalscale/contract-vault/internal/recognize"
	"github.com/ordinalscale/contract-vault/internal/repository"
)

type putCall struct {
	key  string
	opts blobstore.PutOptions
}

type fakeStore struct {
	mu      sync.Mutex
	putErr  error
	entered chan struct{} // signaled when Put begins, if non-nil
	release chan struct{} // Put blocks on this, if non-nil
	calls   []putCall
}

func (f *fakeStore) Put(_ context.Context, key string, _ []byte, opts blobstore.PutOptions) error {
	f.mu.Lock()
	f.calls = append(f.calls, putCall{key: key, opts: opts})
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.putErr
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRenderer struct {
	notReady bool
	err      error
	calls    int
}

func (f *fakeRenderer) Ready() bool { return !f.notReady }

func (f *fakeRenderer) RenderFirstPage(_ []byte, scale float64) (raster.PageImage, error) {
	f.calls++
	if f.err != nil {
		return raster.PageImage{}, f.err
	}
	return raster.PageImage{PNG: []byte("\x89PNG"), Width: int(612 * scale), Height: int(792 * scale)}, nil
}

type fakeSession struct {
	text   string
	recErr error
	closed bool
	calls  int
}

func (s *fakeSession) Configure(string) error { return nil }

func (s *fakeSession) Recognize(context.Context, []byte) (string, error) {
	s.calls++
	return s.text, s.recErr
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeEngine struct {
	session *fakeSession
	acqErr  error
}

func (e *fakeEngine) Acquire() (recognize.Session, error) {
	if e.acqErr != nil {
		return nil, e.acqErr
	}
	return e.session, nil
}

type fakeContracts struct {
	mu        sync.Mutex
	insertErr error
	inserted  []*repository.Contract
}

func (f *fakeContracts) Insert(_ context.Context, c *repository.Contract) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	f.inserted = append(f.inserted, c)
	f.mu.Unlock()
	return nil
}

func (f *fakeContracts) GetByID(context.Context, uuid.UUID) (*repository.Contract, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeContracts) List(context.Context) ([]*repository.Contract, error) {
	return nil, errors.New("not implemented")
}

type harness struct {
	store     *fakeStore
	renderer  *fakeRenderer
	session   *fakeSession
	engine    *fakeEngine
	contracts *fakeContracts
	ctrl      *Controller
}

func newHarness() *harness {
	h := &harness{
		store:     &fakeStore{},
		renderer:  &fakeRenderer{},
		session:   &fakeSession{text: "Hello World"},
		contracts: &fakeContracts{},
	}
	h.engine = &fakeEngine{session: h.session}
	h.ctrl = NewController(Config{}, h.store, h.renderer, h.engine, h.contracts, nil)
	return h
}

func TestIngestHappyPath(t *testing.T) {
	h := newHarness()

	id, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected a job id")
	}

	wantKey := id.String() + "/contract.pdf"
	if len(h.store.calls) != 1 || h.store.calls[0].key != wantKey {
		t.Fatalf("archival call = %+v, want key %s", h.store.calls, wantKey)
	}
	call := h.store.calls[0]
	if call.opts.Overwrite {
		t.Fatal("archival must not overwrite existing objects")
	}
	if call.opts.ContentType != "application/pdf" {
		t.Fatalf("content type = %q", call.opts.ContentType)
	}
	if call.opts.CacheControl != "3600" {
		t.Fatalf("cache control = %q", call.opts.CacheControl)
	}

	if len(h.contracts.inserted) != 1 {
		t.Fatalf("expected one record, got %d", len(h.contracts.inserted))
	}
	rec := h.contracts.inserted[0]
	if rec.ID != id || rec.FileName != "contract.pdf" || rec.StoragePath != wantKey || rec.OCRText != "Hello World" {
		t.Fatalf("unexpected record %+v", rec)
	}

	if !h.session.closed {
		t.Fatal("recognition session must be released after success")
	}
	if got := h.ctrl.Status(); got != constants.StatusIdle {
		t.Fatalf("status after success = %s, want IDLE", got)
	}
}

func TestIngestGeneratesFreshIDs(t *testing.T) {
	h := newHarness()

	seen := map[uuid.UUID]bool{}
	for i := 0; i < 5; i++ {
		h.session.closed = false
		id, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF"))
		if err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("job id %s reused", id)
		}
		seen[id] = true
	}
}

func TestIngestDuplicateKey(t *testing.T) {
	h := newHarness()
	h.store.putErr = &blobstore.Error{Code: blobstore.CodeDuplicateKey, Op: "put", Key: "k"}

	_, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF"))
	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindDuplicateKey {
		t.Fatalf("expected DuplicateKey stage error, got %v", err)
	}
	if se.Stage != constants.StatusUploading {
		t.Fatalf("stage = %s, want UPLOADING", se.Stage)
	}

	// Idempotence of failure: stages 3-5 are unreachable.
	if h.renderer.calls != 0 {
		t.Fatal("rasterization must not run after archival failure")
	}
	if h.session.calls != 0 {
		t.Fatal("recognition must not run after archival failure")
	}
	if len(h.contracts.inserted) != 0 {
		t.Fatal("no record may be written after archival failure")
	}
	if got := h.ctrl.Status(); got != constants.StatusIdle {
		t.Fatalf("status after failure = %s, want IDLE", got)
	}
	if !h.ctrl.CanSubmit() {
		t.Fatal("submit must be re-enabled after failure")
	}
}

func TestIngestRendererNotReady(t *testing.T) {
	h := newHarness()
	h.renderer.notReady = true

	if h.ctrl.CanSubmit() {
		t.Fatal("submit must be disabled while the renderer initializes")
	}
	_, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF"))
	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindRenderingNotReady {
		t.Fatalf("expected RenderingNotReady, got %v", err)
	}
	if h.store.callCount() != 0 {
		t.Fatal("no archival call may be attempted before the renderer is ready")
	}
}

func TestIngestRenderingFailed(t *testing.T) {
	h := newHarness()
	h.renderer.err = errors.New("malformed xref")

	_, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF"))
	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindRenderingFailed {
		t.Fatalf("expected RenderingFailed, got %v", err)
	}
	if h.session.calls != 0 || len(h.contracts.inserted) != 0 {
		t.Fatal("later stages must not run after rendering failure")
	}
}

func TestIngestRecognitionFailedKeepsBlob(t *testing.T) {
	h := newHarness()
	h.session.recErr = errors.New("engine crashed")

	_, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF"))
	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindRecognitionFailed {
		t.Fatalf("expected RecognitionFailed, got %v", err)
	}
	if len(h.contracts.inserted) != 0 {
		t.Fatal("no record may exist after recognition failure")
	}
	// The archived object is deliberately not rolled back.
	if h.store.callCount() != 1 {
		t.Fatalf("expected the archived object to remain, put calls = %d", h.store.callCount())
	}
	if !h.session.closed {
		t.Fatal("recognition session must be released on failure")
	}
	if got := h.ctrl.Status(); got != constants.StatusIdle {
		t.Fatalf("status after failure = %s, want IDLE", got)
	}
}

func TestIngestAcquireFailed(t *testing.T) {
	// Acquisition failure classifies as recognition failure too.
	h := newHarness()
	h.engine.acqErr = errors.New("no engine")
	_, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF"))
	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindRecognitionFailed {
		t.Fatalf("expected RecognitionFailed for acquisition failure, got %v", err)
	}
}

func TestIngestPersistenceFailed(t *testing.T) {
	h := newHarness()
	h.contracts.insertErr = errors.New("connection reset")

	_, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF"))
	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindPersistenceFailed {
		t.Fatalf("expected PersistenceFailed, got %v", err)
	}
	if got := h.ctrl.Status(); got != constants.StatusIdle {
		t.Fatalf("status after failure = %s, want IDLE", got)
	}
}

func TestIngestRejectsSecondSubmission(t *testing.T) {
	h := newHarness()
	h.store.entered = make(chan struct{}, 1)
	h.store.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF"))
		done <- err
	}()

	<-h.store.entered
	if got := h.ctrl.Status(); got != constants.StatusUploading {
		t.Fatalf("in-flight status = %s, want UPLOADING", got)
	}
	if h.ctrl.CanSubmit() {
		t.Fatal("submit must be disabled while a job is in flight")
	}

	// Second submission is a no-op: no job, no duplicate archival call.
	_, err := h.ctrl.Ingest(context.Background(), "other.pdf", []byte("%PDF"))
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if h.store.callCount() != 1 {
		t.Fatalf("archival calls = %d, want 1", h.store.callCount())
	}

	close(h.store.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first ingest: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first ingest did not finish")
	}
	if got := h.ctrl.Status(); got != constants.StatusIdle {
		t.Fatalf("status after completion = %s, want IDLE", got)
	}
}

func TestIngestUnclassifiedMessagePassedThrough(t *testing.T) {
	h := newHarness()
	h.store.putErr = errors.New("backend melted")

	_, err := h.ctrl.Ingest(context.Background(), "contract.pdf", []byte("%PDF"))
	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindArchivalUnclassified {
		t.Fatalf("expected ArchivalUnclassified, got %v", err)
	}
	if !strings.Contains(se.Error(), "backend melted") {
		t.Fatalf("raw message must pass through, got %q", se.Error())
	}
}
