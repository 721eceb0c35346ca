package recognize

import "context"

// Session is a stateful handle to the OCR engine scoped to one job. It is
// acquired fresh per job and must be closed unconditionally after use,
// including on failure, so engine resources never leak across jobs.
type Session interface {
	// Configure scopes the session to a single language model (e.g. "eng").
	Configure(lang string) error
	// Recognize runs OCR on a PNG-encoded image and returns the extracted
	// plain text. No confidence threshold is applied; whatever the engine
	// returns, empty or not, is accepted as-is.
	Recognize(ctx context.Context, png []byte) (string, error)
	Close() error
}

// Engine hands out recognition sessions.
type Engine interface {
	Acquire() (Session, error)
}
