package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"PicSphere/internal/core/media"
)

const downloadHost = "firebasestorage.googleapis.com"

// BlobStore stores media in a Cloud Storage bucket and hands out Firebase
// download URLs (token-protected, publicly fetchable).
type BlobStore struct {
	bucket *gcs.BucketHandle
	name   string
}

var _ media.BlobStore = (*BlobStore)(nil)

// NewBlobStore wraps a bucket handle. name is the bucket name used in URLs.
func NewBlobStore(bucket *gcs.BucketHandle, name string) *BlobStore {
	return &BlobStore{bucket: bucket, name: name}
}

func (b *BlobStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	token := uuid.NewString()

	w := b.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return DownloadURL(b.name, path, token), nil
}

func (b *BlobStore) DeleteByURL(ctx context.Context, rawURL string) error {
	path, err := ObjectPathFromURL(b.name, rawURL)
	if err != nil {
		return err
	}
	if err := b.bucket.Object(path).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return media.ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// DownloadURL builds the Firebase download URL of an object
func DownloadURL(bucket, path, token string) string {
	return fmt.Sprintf("https://%s/v0/b/%s/o/%s?alt=media&token=%s",
		downloadHost, bucket, url.PathEscape(path), url.QueryEscape(token))
}

// ObjectPathFromURL extracts the object path from a download URL of bucket
func ObjectPathFromURL(bucket, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host != downloadHost {
		return "", fmt.Errorf("%w: %s", media.ErrForeignURL, rawURL)
	}
	prefix := "/v0/b/" + bucket + "/o/"
	escaped := u.EscapedPath()
	if !strings.HasPrefix(escaped, prefix) {
		return "", fmt.Errorf("%w: %s", media.ErrForeignURL, rawURL)
	}
	path, err := url.PathUnescape(strings.TrimPrefix(escaped, prefix))
	if err != nil || path == "" {
		return "", fmt.Errorf("%w: %s", media.ErrForeignURL, rawURL)
	}
	return path, nil
}
