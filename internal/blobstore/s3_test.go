package blobstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestClassifyS3Error(t *testing.T) {
	cases := []struct {
		apiCode string
		want    Code
	}{
		{"PreconditionFailed", CodeDuplicateKey},
		{"ConditionalRequestConflict", CodeDuplicateKey},
		{"EntityTooLarge", CodeTooLarge},
		{"InvalidAccessKeyId", CodeAuthRejected},
		{"ExpiredToken", CodeAuthRejected},
		{"AccessDenied", CodeDenied},
		{"SlowDown", CodeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.apiCode, func(t *testing.T) {
			err := fmt.Errorf("operation error S3: PutObject: %w",
				&smithy.GenericAPIError{Code: tc.apiCode, Message: "x"})
			if got := classifyS3Error(err); got != tc.want {
				t.Fatalf("classifyS3Error(%s) = %s, want %s", tc.apiCode, got, tc.want)
			}
		})
	}
}

func TestClassifyS3ErrorNonAPI(t *testing.T) {
	if got := classifyS3Error(errors.New("dial tcp: connection refused")); got != CodeUnknown {
		t.Fatalf("expected CodeUnknown, got %s", got)
	}
}

func TestMemoryStoreRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	opts := PutOptions{ContentType: "application/pdf"}
	if err := store.Put(ctx, "f1/contract.pdf", []byte("%PDF"), opts); err != nil {
		t.Fatalf("first put: %v", err)
	}
	err := store.Put(ctx, "f1/contract.pdf", []byte("%PDF"), opts)
	if err == nil {
		t.Fatal("expected duplicate-key error on second put")
	}
	var se *Error
	if !errors.As(err, &se) || se.Code != CodeDuplicateKey {
		t.Fatalf("expected CodeDuplicateKey, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected exactly one object, got %d", store.Len())
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, "k", []byte("abc"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, ok := store.Get("k")
	if !ok {
		t.Fatal("expected stored object")
	}
	data[0] = 'z'
	again, _ := store.Get("k")
	if string(again) != "abc" {
		t.Fatalf("stored object mutated through Get, got %q", again)
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, "k", []byte("a"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "k", []byte("b"), PutOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite put: %v", err)
	}
	data, ok := store.Get("k")
	if !ok || string(data) != "b" {
		t.Fatalf("expected overwritten object, got %q ok=%t", data, ok)
	}
}
