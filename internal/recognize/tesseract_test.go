package recognize

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderTextPNG(t *testing.T, text string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestTesseractSessionRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	engine := NewTesseractEngine("", nil)
	sess, err := engine.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer sess.Close()

	if err := sess.Configure("eng"); err != nil {
		t.Fatalf("configure: %v", err)
	}
	text, err := sess.Recognize(context.Background(), renderTextPNG(t, "Hello World"))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if !strings.Contains(text, "Hello") {
		t.Fatalf("expected recognized text to contain %q, got %q", "Hello", text)
	}
}

func TestTesseractSessionCanceledContext(t *testing.T) {
	ensureTesseractAvailable(t)

	engine := NewTesseractEngine("", nil)
	sess, err := engine.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sess.Recognize(ctx, renderTextPNG(t, "x")); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
