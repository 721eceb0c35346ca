package pipeline

import (
	"errors"
	"testing"

	"github.com/ordinalscale/contract-vault/internal/blobstore"
)

func TestClassifyArchivalStructuredCodes(t *testing.T) {
	cases := []struct {
		code blobstore.Code
		want Kind
	}{
		{blobstore.CodeDuplicateKey, KindDuplicateKey},
		{blobstore.CodeTooLarge, KindSizeLimitExceeded},
		{blobstore.CodeAuthRejected, KindAuthRejected},
		{blobstore.CodeDenied, KindPermissionDenied},
		{blobstore.CodeUnknown, KindArchivalUnclassified},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			err := &blobstore.Error{Code: tc.code, Op: "put", Key: "k"}
			if got := classifyArchival(err); got != tc.want {
				t.Fatalf("classifyArchival(%s) = %s, want %s", tc.code, got, tc.want)
			}
		})
	}
}

func TestClassifyArchivalMessageFallback(t *testing.T) {
	cases := []struct {
		msg  string
		want Kind
	}{
		{"the resource already exists (duplicate)", KindDuplicateKey},
		{"payload exceeds maximum size", KindSizeLimitExceeded},
		{"invalid JWT", KindAuthRejected},
		{"new row violates row-level security policy", KindPermissionDenied},
		{"something else entirely", KindArchivalUnclassified},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			if got := classifyArchival(errors.New(tc.msg)); got != tc.want {
				t.Fatalf("classifyArchival(%q) = %s, want %s", tc.msg, got, tc.want)
			}
		})
	}
}

func TestClassifyArchivalStructuredCodeWins(t *testing.T) {
	// A structured code takes precedence over whatever the message says.
	err := &blobstore.Error{Code: blobstore.CodeDenied, Op: "put", Key: "k",
		Cause: errors.New("duplicate noise in the message")}
	if got := classifyArchival(err); got != KindPermissionDenied {
		t.Fatalf("expected structured code to win, got %s", got)
	}
}

func TestStageErrorUnwrap(t *testing.T) {
	cause := &blobstore.Error{Code: blobstore.CodeDuplicateKey, Op: "put", Key: "k"}
	se := &StageError{Kind: KindDuplicateKey, Stage: "UPLOADING", Err: cause}

	var be *blobstore.Error
	if !errors.As(se, &be) || be.Code != blobstore.CodeDuplicateKey {
		t.Fatalf("expected StageError to unwrap to the store error, got %v", se)
	}
}
