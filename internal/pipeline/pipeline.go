package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ordinalscale/contract-vault/constants"
	"github.com/ordinalscale/contract-vault/internal/blobstore"
	"github.com/ordinalscale/contract-vault/internal/raster"
	"github.com/ordinalscale/contract-vault/internal/recognize"
	"github.com/ordinalscale/contract-vault/internal/repository"
)

// Renderer is the rendering-engine capability the rasterization stage needs.
// *raster.Renderer satisfies it.
type Renderer interface {
	Ready() bool
	RenderFirstPage(data []byte, scale float64) (raster.PageImage, error)
}

// Config holds the fixed stage parameters.
type Config struct {
	Scale        float64 // raster upscale factor, default 2.0
	Language     string  // OCR language model, default "eng"
	CacheControl string  // archived-object cache control, default 3600
}

// Controller owns the ingestion state machine for one upload session. At
// most one job is in flight at a time; a submission while the machine is
// non-idle is rejected without side effects. Stages run in strict sequence
// on the calling goroutine, and any stage failure resets the machine to idle
// after classification and diagnostic logging.
type Controller struct {
	cfg       Config
	store     blobstore.Store
	renderer  Renderer
	engine    recognize.Engine
	contracts repository.ContractRepository
	logger    *slog.Logger

	mu     sync.Mutex
	status constants.Status
}

func NewController(
	cfg Config,
	store blobstore.Store,
	renderer Renderer,
	engine recognize.Engine,
	contracts repository.ContractRepository,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 2.0
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = constants.DefaultCacheControl
	}
	return &Controller{
		cfg:       cfg,
		store:     store,
		renderer:  renderer,
		engine:    engine,
		contracts: contracts,
		logger:    logger,
		status:    constants.StatusIdle,
	}
}

// Status returns the machine's current state.
func (c *Controller) Status() constants.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Ready reports whether the rendering engine finished initializing.
func (c *Controller) Ready() bool {
	return c.renderer.Ready()
}

// CanSubmit reports whether a new submission would be accepted: machine idle
// and rendering engine initialized. The submit affordance is driven by this,
// disabled rather than validated after the fact.
func (c *Controller) CanSubmit() bool {
	return c.Status() == constants.StatusIdle && c.renderer.Ready()
}

// Ingest runs one file through the full pipeline: archive the original,
// rasterize page 1, recognize text, persist the record. It returns the job
// id on success. On any failure the classified error is logged, observable
// state resets to idle, and the partially processed job is dropped; blobs
// archived before the failure are deliberately not rolled back.
func (c *Controller) Ingest(ctx context.Context, name string, data []byte) (uuid.UUID, error) {
	c.mu.Lock()
	if c.status.InFlight() {
		c.mu.Unlock()
		return uuid.Nil, ErrBusy
	}
	if !c.renderer.Ready() {
		// Fail before any archival call; the submit control should have
		// been disabled.
		c.mu.Unlock()
		err := &StageError{Kind: KindRenderingNotReady, Stage: constants.StatusIdle, Err: raster.ErrNotReady}
		c.logger.Error("submission rejected", "kind", err.Kind, "file_name", name)
		return uuid.Nil, err
	}
	c.status = constants.StatusUploading
	c.mu.Unlock()

	job := newJob(name, data)
	c.logger.Info("ingestion started", "job_id", job.ID, "file_name", name, "bytes", len(data))

	err := c.run(ctx, job)

	c.setStatus(constants.StatusIdle)

	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			c.logger.Error("ingestion failed",
				"job_id", job.ID, "stage", se.Stage, "kind", se.Kind, "error", se.Err)
		} else {
			c.logger.Error("ingestion failed", "job_id", job.ID, "error", err)
		}
		return uuid.Nil, err
	}

	c.logger.Info("ingestion completed",
		"job_id", job.ID, "storage_key", job.StorageKey, "text_bytes", len(job.ExtractedText))
	return job.ID, nil
}

// run drives stages 2→5 in strict sequence; no stage starts before the
// previous one's result is available.
func (c *Controller) run(ctx context.Context, job *IngestionJob) error {
	key := job.archiveKey()
	err := c.store.Put(ctx, key, job.Source.Data, blobstore.PutOptions{
		ContentType:  constants.PDFContentType,
		CacheControl: c.cfg.CacheControl,
		Overwrite:    false,
	})
	if err != nil {
		return &StageError{Kind: classifyArchival(err), Stage: constants.StatusUploading, Err: err}
	}
	job.StorageKey = key

	c.setStatus(constants.StatusRasterizing)
	img, err := c.renderer.RenderFirstPage(job.Source.Data, c.cfg.Scale)
	if err != nil {
		kind := KindRenderingFailed
		if errors.Is(err, raster.ErrNotReady) {
			kind = KindRenderingNotReady
		}
		return &StageError{Kind: kind, Stage: constants.StatusRasterizing, Err: err}
	}

	c.setStatus(constants.StatusRecognizing)
	text, err := c.recognizeText(ctx, img.PNG)
	if err != nil {
		return &StageError{Kind: KindRecognitionFailed, Stage: constants.StatusRecognizing, Err: err}
	}
	job.ExtractedText = text

	c.setStatus(constants.StatusPersisting)
	record := &repository.Contract{
		ID:          job.ID,
		FileName:    job.Source.Name,
		StoragePath: job.StorageKey,
		OCRText:     job.ExtractedText,
		UploadedAt:  time.Now().UTC(),
	}
	if err := c.contracts.Insert(ctx, record); err != nil {
		return &StageError{Kind: KindPersistenceFailed, Stage: constants.StatusPersisting, Err: err}
	}
	return nil
}

// recognizeText acquires a recognition session for this job only and
// releases it on every path.
func (c *Controller) recognizeText(ctx context.Context, png []byte) (string, error) {
	sess, err := c.engine.Acquire()
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			c.logger.Warn("recognition session close failed", "error", cerr)
		}
	}()

	if err := sess.Configure(c.cfg.Language); err != nil {
		return "", err
	}
	return sess.Recognize(ctx, png)
}

func (c *Controller) setStatus(s constants.Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}
