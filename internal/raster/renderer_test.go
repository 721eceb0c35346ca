package raster

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func waitForRenderer(t *testing.T, r *Renderer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.WaitReady(ctx); err != nil {
		t.Skipf("rendering engine unavailable: %v", err)
	}
}

func TestRendererBecomesReady(t *testing.T) {
	r := NewRenderer(nil)
	waitForRenderer(t, r)
	if !r.Ready() {
		t.Fatal("renderer should report ready after WaitReady succeeds")
	}
}

func TestRenderFirstPage(t *testing.T) {
	r := NewRenderer(nil)
	waitForRenderer(t, r)

	img, err := r.RenderFirstPage(blankPDF(), 2.0)
	if err != nil {
		t.Fatalf("RenderFirstPage: %v", err)
	}
	if len(img.PNG) == 0 {
		t.Fatal("expected PNG bytes")
	}
	if !bytes.HasPrefix(img.PNG, []byte("\x89PNG")) {
		t.Fatal("output is not PNG-encoded")
	}
	// 72x72pt page at 2.0x scale renders to 144x144px.
	if img.Width != 144 || img.Height != 144 {
		t.Fatalf("unexpected dimensions %dx%d, want 144x144", img.Width, img.Height)
	}
}

func TestRenderFirstPageGarbage(t *testing.T) {
	r := NewRenderer(nil)
	waitForRenderer(t, r)

	if _, err := r.RenderFirstPage([]byte("not a pdf"), 2.0); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}

func TestRenderBeforeReady(t *testing.T) {
	// A renderer whose probe never ran reports not ready and refuses work.
	r := &Renderer{done: make(chan struct{})}
	if r.Ready() {
		t.Fatal("renderer should not be ready before initialization")
	}
	if _, err := r.RenderFirstPage(blankPDF(), 2.0); err != ErrNotReady {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}
