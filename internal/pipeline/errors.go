package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ordinalscale/contract-vault/constants"
	"github.com/ordinalscale/contract-vault/internal/blobstore"
)

// Kind is the classification of a pipeline failure. None of these are
// retryable; every kind resets the machine to idle.
type Kind string

const (
	KindDuplicateKey         Kind = "DUPLICATE_KEY"
	KindSizeLimitExceeded    Kind = "SIZE_LIMIT_EXCEEDED"
	KindAuthRejected         Kind = "AUTH_REJECTED"
	KindPermissionDenied     Kind = "PERMISSION_DENIED"
	KindArchivalUnclassified Kind = "ARCHIVAL_UNCLASSIFIED"
	KindRenderingNotReady    Kind = "RENDERING_NOT_READY"
	KindRenderingFailed      Kind = "RENDERING_FAILED"
	KindRecognitionFailed    Kind = "RECOGNITION_FAILED"
	KindPersistenceFailed    Kind = "PERSISTENCE_FAILED"
)

// ErrBusy is returned when a submission arrives while a job is in flight.
// The submission is a no-op: no job is created and no stage runs.
var ErrBusy = errors.New("pipeline: a job is already in flight")

// StageError is a classified pipeline failure. Stage names the state the
// machine was in when the failure occurred.
type StageError struct {
	Kind  Kind
	Stage constants.Status
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// classifyArchival maps a blob-store failure to a taxonomy kind. The store's
// structured code is authoritative; message pattern matching is only a
// fallback for providers without one, and anything it cannot place lands in
// the unclassified kind with the raw message passed through.
func classifyArchival(err error) Kind {
	var se *blobstore.Error
	if errors.As(err, &se) {
		switch se.Code {
		case blobstore.CodeDuplicateKey:
			return KindDuplicateKey
		case blobstore.CodeTooLarge:
			return KindSizeLimitExceeded
		case blobstore.CodeAuthRejected:
			return KindAuthRejected
		case blobstore.CodeDenied:
			return KindPermissionDenied
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate"):
		return KindDuplicateKey
	case strings.Contains(msg, "size"):
		return KindSizeLimitExceeded
	case strings.Contains(msg, "JWT"):
		return KindAuthRejected
	case strings.Contains(msg, "row-level security"):
		return KindPermissionDenied
	default:
		return KindArchivalUnclassified
	}
}
