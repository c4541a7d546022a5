package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getGoogleClient initializes a Google Cloud Storage client.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS).
	// If you need to provide explicit JSON (e.g. locally), set GCS_CREDENTIALS_JSON.
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// GCSBlobStore publishes close artifacts to a GCS bucket. Keys follow the
// daily-close/{date}/... scheme chosen by the caller.
type GCSBlobStore struct {
	Bucket string
}

func NewGCSBlobStore() (*GCSBlobStore, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	return &GCSBlobStore{Bucket: bucket}, nil
}

func (s *GCSBlobStore) PutJSON(ctx context.Context, key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.put(ctx, key, data, "application/json")
}

func (s *GCSBlobStore) PutText(ctx context.Context, key string, value string) error {
	contentType := "text/plain; charset=utf-8"
	if strings.HasSuffix(key, ".html") {
		contentType = "text/html; charset=utf-8"
	}
	return s.put(ctx, key, []byte(value), contentType)
}

func (s *GCSBlobStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", s.Bucket, key, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}
