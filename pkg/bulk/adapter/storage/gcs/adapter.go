// Package gcs implements the storage adapter on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"io"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	storage "github.com/callscope/callscope/pkg/bulk/adapter/storage"
	storageconfig "github.com/callscope/callscope/pkg/bulk/adapter/storage/config"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// ProviderType identifies this backend in configuration.
const ProviderType = "gcs"

type gcsStore struct {
	cfg    storageconfig.StorageConfig
	client *gstorage.Client
}

var _ storage.Store = (*gcsStore)(nil)

// New creates a GCS-backed Store. With an empty credentials_file the client
// falls back to application default credentials.
func New(ctx context.Context, cfg storageconfig.StorageConfig) (storage.Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, exception.NewBulkError("storage", "failed to create GCS client", err)
	}
	return &gcsStore{cfg: cfg, client: client}, nil
}

func (s *gcsStore) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	w := s.client.Bucket(s.bucketOrDefault(bucket)).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return exception.NewBulkErrorf("storage", "failed to upload object '%s'", objectName, err)
	}
	if err := w.Close(); err != nil {
		return exception.NewBulkErrorf("storage", "failed to finalize object '%s'", objectName, err)
	}
	logger.Debugf("GCS store: uploaded '%s' to bucket '%s'.", objectName, s.bucketOrDefault(bucket))
	return nil
}

func (s *gcsStore) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucketOrDefault(bucket)).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, exception.NewBulkErrorf("storage", "failed to open object '%s'", objectName, err)
	}
	return r, nil
}

func (s *gcsStore) List(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	it := s.client.Bucket(s.bucketOrDefault(bucket)).Objects(ctx, &gstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return exception.NewBulkErrorf("storage", "failed to list bucket '%s'", s.bucketOrDefault(bucket), err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

func (s *gcsStore) Delete(ctx context.Context, bucket, objectName string) error {
	err := s.client.Bucket(s.bucketOrDefault(bucket)).Object(objectName).Delete(ctx)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		logger.Warnf("GCS store: delete of missing object '%s' ignored.", objectName)
		return nil
	}
	if err != nil {
		return exception.NewBulkErrorf("storage", "failed to delete object '%s'", objectName, err)
	}
	return nil
}

func (s *gcsStore) Close() error { return s.client.Close() }

func (s *gcsStore) Type() string { return ProviderType }

func (s *gcsStore) bucketOrDefault(bucket string) string {
	if bucket != "" {
		return bucket
	}
	return s.cfg.BucketName
}
