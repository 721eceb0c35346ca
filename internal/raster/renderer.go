package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/gen2brain/go-fitz"
)

// PDF user space is 72 units per inch; a scale factor multiplies this
// baseline when rasterizing.
const baselineDPI = 72.0

// ErrNotReady is returned when rendering is requested before the one-time
// engine initialization has completed.
var ErrNotReady = errors.New("raster: renderer not initialized")

// PageImage is one rasterized page, PNG-encoded, at its intrinsic rendered
// size.
type PageImage struct {
	PNG    []byte
	Width  int
	Height int
}

// Renderer is the process-wide handle to the MuPDF rendering engine. The
// engine loads its native runtime on first use, so the handle performs a
// one-time probe on a background goroutine at construction; callers must
// check Ready (or wait on WaitReady) before rendering instead of racing
// against an uninitialized handle.
type Renderer struct {
	logger  *slog.Logger
	done    chan struct{}
	initErr error
}

// NewRenderer constructs the renderer and starts its initialization probe.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{logger: logger, done: make(chan struct{})}
	go r.init()
	return r
}

func (r *Renderer) init() {
	defer close(r.done)
	doc, err := fitz.NewFromMemory(blankPDF())
	if err != nil {
		r.initErr = fmt.Errorf("raster: engine probe: %w", err)
		r.logger.Error("renderer initialization failed", "error", err)
		return
	}
	defer doc.Close()
	if _, err := doc.Image(0); err != nil {
		r.initErr = fmt.Errorf("raster: engine probe render: %w", err)
		r.logger.Error("renderer initialization failed", "error", err)
		return
	}
	r.logger.Info("renderer initialized")
}

// Ready reports whether the engine finished initializing successfully.
func (r *Renderer) Ready() bool {
	select {
	case <-r.done:
		return r.initErr == nil
	default:
		return false
	}
}

// WaitReady blocks until initialization settles or ctx is done.
func (r *Renderer) WaitReady(ctx context.Context) error {
	select {
	case <-r.done:
		return r.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RenderFirstPage decodes the document and rasterizes page 1 only at the
// given scale against the 72 DPI baseline. Later pages are never inspected.
func (r *Renderer) RenderFirstPage(data []byte, scale float64) (PageImage, error) {
	if !r.Ready() {
		return PageImage{}, ErrNotReady
	}
	if scale <= 0 {
		return PageImage{}, fmt.Errorf("raster: invalid scale %v", scale)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return PageImage{}, fmt.Errorf("raster: open document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return PageImage{}, errors.New("raster: document has no pages")
	}

	img, err := doc.ImageDPI(0, baselineDPI*scale)
	if err != nil {
		return PageImage{}, fmt.Errorf("raster: render page 1: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return PageImage{}, fmt.Errorf("raster: encode png: %w", err)
	}
	bounds := img.Bounds()
	return PageImage{PNG: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
