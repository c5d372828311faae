package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/pep299/subreddit-digest/internal/model"
)

// CloudStorageStore keeps the snapshot as a JSON object in Google Cloud Storage
type CloudStorageStore struct {
	client     *storage.Client
	bucketName string
	objectName string
}

// NewCloudStorageStore creates a Cloud Storage store for a single object
func NewCloudStorageStore(ctx context.Context, bucketName, objectName string, opts ...option.ClientOption) (*CloudStorageStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &CloudStorageStore{
		client:     client,
		bucketName: bucketName,
		objectName: objectName,
	}, nil
}

// Load reads the snapshot object
func (c *CloudStorageStore) Load(ctx context.Context) (*model.Snapshot, error) {
	obj := c.client.Bucket(c.bucketName).Object(c.objectName)

	reader, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening object reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading object data: %w", err)
	}

	return decode(data)
}

// Save overwrites the snapshot object
func (c *CloudStorageStore) Save(ctx context.Context, s *model.Snapshot) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	obj := c.client.Bucket(c.bucketName).Object(c.objectName)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("writing object data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing object writer: %w", err)
	}

	return nil
}

// Close closes the Cloud Storage client
func (c *CloudStorageStore) Close() error {
	return c.client.Close()
}
