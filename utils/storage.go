package utils

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	storage "github.com/supabase-community/storage-go"
)

var ErrStorageDisabled = errors.New("file storage is not configured")

// FileStore stores uploaded files and returns their public URL.
type FileStore interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string) (string, error)
}

type SupabaseStore struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

var _ FileStore = (*SupabaseStore)(nil)

func NewSupabaseStore(baseURL, key, bucket string) *SupabaseStore {
	baseURL = strings.TrimRight(baseURL, "/")
	return &SupabaseStore{
		client:  storage.NewClient(baseURL+"/storage/v1", key, nil),
		baseURL: baseURL,
		bucket:  bucket,
	}
}

func (s *SupabaseStore) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	upsert := false
	opts := storage.FileOptions{ContentType: &contentType, Upsert: &upsert}
	if _, err := s.client.UploadFile(s.bucket, objectPath, data, opts); err != nil {
		return "", errors.Wrap(err, "uploading to supabase")
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}
