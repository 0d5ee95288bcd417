package memory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"PicSphere/internal/core/media"
)

type blob struct {
	data        []byte
	contentType string
}

// BlobStore keeps uploaded objects in memory and serves them over HTTP.
// URLs have the form {baseURL}/{path}.
type BlobStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]blob
}

var _ media.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates a blob store whose URLs start with baseURL
func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string]blob),
	}
}

func (b *BlobStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("object path cannot be empty")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[path] = blob{data: append([]byte(nil), data...), contentType: contentType}
	return b.baseURL + "/" + path, nil
}

func (b *BlobStore) DeleteByURL(ctx context.Context, url string) error {
	path, err := b.pathFor(url)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.objects[path]; !ok {
		return media.ErrBlobNotFound
	}
	delete(b.objects, path)
	return nil
}

// Has reports whether an object exists at path
func (b *BlobStore) Has(path string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[path]
	return ok
}

func (b *BlobStore) pathFor(url string) (string, error) {
	prefix := b.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("%w: %s", media.ErrForeignURL, url)
	}
	return strings.TrimPrefix(url, prefix), nil
}

// ServeHTTP serves stored objects. Mount it with the URL prefix stripped,
// e.g. http.StripPrefix("/media/", store).
func (b *BlobStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b.mu.RLock()
	obj, ok := b.objects[strings.TrimPrefix(r.URL.Path, "/")]
	b.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", obj.contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(obj.data)
	}
}
