package blobstore

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Store writes archived originals to an S3 bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3Store creates an S3-backed blob store.
func NewS3Store(client *s3.Client, bucket string, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{client: client, bucket: bucket, logger: logger}
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		in.CacheControl = aws.String(opts.CacheControl)
	}
	if !opts.Overwrite {
		// Conditional write: S3 answers 412 PreconditionFailed when an
		// object already exists at the key.
		in.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		code := classifyS3Error(err)
		s.logger.Error("blob put failed", "bucket", s.bucket, "key", key, "code", code, "error", err)
		return &Error{Code: code, Op: "put", Key: key, Cause: err}
	}
	s.logger.Debug("blob put ok", "bucket", s.bucket, "key", key, "bytes", len(data))
	return nil
}

// classifyS3Error maps an SDK failure to a structured store code.
func classifyS3Error(err error) Code {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return CodeUnknown
	}
	switch ae.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return CodeDuplicateKey
	case "EntityTooLarge", "MaxMessageLengthExceeded":
		return CodeTooLarge
	case "InvalidAccessKeyId", "ExpiredToken", "TokenRefreshRequired", "SignatureDoesNotMatch":
		return CodeAuthRejected
	case "AccessDenied", "AllAccessDisabled":
		return CodeDenied
	default:
		return CodeUnknown
	}
}
