package blobstore

import (
	"context"
	"fmt"
)

// Code classifies a store failure. Callers branch on Code instead of parsing
// provider messages; CodeUnknown carries the raw message through untouched.
type Code string

const (
	CodeDuplicateKey Code = "DUPLICATE_KEY" // object already exists at key
	CodeTooLarge     Code = "TOO_LARGE"     // payload exceeds the store limit
	CodeAuthRejected Code = "AUTH_REJECTED" // invalid or expired credential
	CodeDenied       Code = "DENIED"        // access-policy violation
	CodeUnknown      Code = "UNKNOWN"       // anything else
)

// Error is the structured failure returned by every Store implementation.
type Error struct {
	Code  Code
	Op    string
	Key   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("blobstore %s %q: %s: %v", e.Op, e.Key, e.Code, e.Cause)
	}
	return fmt.Sprintf("blobstore %s %q: %s", e.Op, e.Key, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// PutOptions carries per-object write options.
type PutOptions struct {
	ContentType  string
	CacheControl string
	// Overwrite permits replacing an existing object. The pipeline always
	// archives with Overwrite=false so a name collision is an observable
	// failure rather than silent data loss.
	Overwrite bool
}

// Store is the durable blob store the archival stage writes to. Exactly one
// object is created per successful Put; a failed Put leaves no partial object.
type Store interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
}
