package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LocalBlobStore writes artifacts under a directory on disk. Meant for local
// development and the backfill CLI when no bucket is configured.
type LocalBlobStore struct {
	Dir string
}

func NewLocalBlobStore() *LocalBlobStore {
	dir := os.Getenv("ARTIFACTS_DIR")
	if dir == "" {
		dir = "artifacts"
	}
	return &LocalBlobStore{Dir: dir}
}

func (s *LocalBlobStore) PutJSON(ctx context.Context, key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.write(key, data)
}

func (s *LocalBlobStore) PutText(ctx context.Context, key string, value string) error {
	return s.write(key, []byte(value))
}

func (s *LocalBlobStore) write(key string, data []byte) error {
	path := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
