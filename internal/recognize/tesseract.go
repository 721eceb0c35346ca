package recognize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine acquires sessions backed by the gosseract client.
type TesseractEngine struct {
	tessdataDir   string
	logger        *slog.Logger
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed recognition engine.
// tessdataDir overrides the trained-data location when non-empty.
func NewTesseractEngine(tessdataDir string, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractEngine{
		tessdataDir:   tessdataDir,
		logger:        logger,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Acquire() (Session, error) {
	c := e.clientFactory()
	if e.tessdataDir != "" {
		if err := c.SetTessdataPrefix(e.tessdataDir); err != nil {
			c.Close()
			return nil, fmt.Errorf("recognize: set tessdata prefix: %w", err)
		}
	}
	return &tesseractSession{client: c, logger: e.logger}, nil
}

type tesseractSession struct {
	client *gosseract.Client
	logger *slog.Logger
}

func (s *tesseractSession) Configure(lang string) error {
	if err := s.client.SetLanguage(lang); err != nil {
		return fmt.Errorf("recognize: set language %q: %w", lang, err)
	}
	return nil
}

func (s *tesseractSession) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("recognize: set image: %w", err)
	}
	text, err := s.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: extract text: %w", err)
	}
	return text, nil
}

func (s *tesseractSession) Close() error {
	return s.client.Close()
}
