// Package blobsync mirrors extraction artifacts (extracted.json,
// eval-report.html) to an off-machine object store. It is never on the
// critical path: the filesystem under an eval's results directory is
// the source of truth, and a mirror failure only produces a log line.
// Grounded on internal/storage's per-provider backend files, trimmed to
// the write-only subset blobsync actually needs.
package blobsync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"

	azblob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/abudker/takeoff24/internal/takeoff/config"
)

// Sink is the one-way write surface blobsync needs from a cloud object
// store. Each provider backend implements only this, not a full
// read/write/list interface — the mirror never reads its own copies back.
type Sink interface {
	Put(ctx context.Context, key string, data []byte) error
}

// NewSink builds the Sink named by cfg.Provider. An empty provider
// returns (nil, nil): callers should treat a nil Sink as "mirroring
// disabled" rather than an error.
func NewSink(ctx context.Context, cfg config.BlobConfig) (Sink, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "gcs":
		return newGCSSink(ctx, cfg.Bucket)
	case "s3":
		return newS3Sink(ctx, cfg.Bucket)
	case "azblob":
		return newAzureSink(ctx, cfg.Bucket)
	default:
		return nil, fmt.Errorf("unknown blob provider %q", cfg.Provider)
	}
}

type gcsSink struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

func newGCSSink(ctx context.Context, bucketName string) (*gcsSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &gcsSink{client: client, bucket: client.Bucket(bucketName)}, nil
}

func (s *gcsSink) Put(ctx context.Context, key string, data []byte) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing gcs object %s: %w", key, err)
	}
	return w.Close()
}

type s3Sink struct {
	client *s3.Client
	bucket string
}

func newS3Sink(ctx context.Context, bucketName string) (*s3Sink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &s3Sink{client: s3.NewFromConfig(awsCfg), bucket: bucketName}, nil
}

func (s *s3Sink) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("putting s3 object %s: %w", key, err)
	}
	return nil
}

type azureSink struct {
	client    *azblob.Client
	container string
}

func newAzureSink(ctx context.Context, containerName string) (*azureSink, error) {
	connStr := os.Getenv("AZURE_STORAGE_CONNECTION_STRING")
	if connStr == "" {
		return nil, fmt.Errorf("AZURE_STORAGE_CONNECTION_STRING is not set")
	}
	client, err := azblob.NewClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Azure blob client: %w", err)
	}
	if _, err := client.ServiceClient().NewContainerClient(containerName).GetProperties(ctx, nil); err != nil {
		return nil, fmt.Errorf("accessing container %s: %w", containerName, err)
	}
	return &azureSink{client: client, container: containerName}, nil
}

func (s *azureSink) Put(ctx context.Context, key string, data []byte) error {
	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlockBlobClient(key)
	_, err := blobClient.Upload(ctx, readSeekCloser{bytes.NewReader(data)}, nil)
	if err != nil {
		return fmt.Errorf("uploading blob %s: %w", key, err)
	}
	return nil
}

// readSeekCloser adapts a bytes.Reader (already seekable) to
// io.ReadSeekCloser, which azblob.Upload requires.
type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

var _ io.ReadSeekCloser = readSeekCloser{}
