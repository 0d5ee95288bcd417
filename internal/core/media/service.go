package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
)

// Folders under which uploads are stored
const (
	FolderPosts           = "posts"
	FolderStories         = "stories"
	FolderProfilePictures = "profile_picture"
)

// DefaultMaxUploadBytes caps a single upload (10MB)
const DefaultMaxUploadBytes = 10 << 20

// BlobStore is the remote object store: write-once by key, delete by the URL
// returned from Put.
type BlobStore interface {
	// Put stores data at path and returns a publicly fetchable URL
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// DeleteByURL removes the object a previous Put returned url for.
	// Returns ErrBlobNotFound if it is already gone.
	DeleteByURL(ctx context.Context, url string) error
}

// Service stores user images as PNG objects
type Service interface {
	// UploadImage normalises r to PNG and stores it at {folder}/{name}.png
	UploadImage(ctx context.Context, folder, name string, r io.Reader) (string, error)
	// Delete removes a previously uploaded object by URL
	Delete(ctx context.Context, url string) error
}

type mediaService struct {
	blobs     BlobStore
	processor Processor
	maxBytes  int64
}

// NewService creates a media service
func NewService(blobs BlobStore, processor Processor, maxBytes int64) Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &mediaService{
		blobs:     blobs,
		processor: processor,
		maxBytes:  maxBytes,
	}
}

// ObjectPath returns the storage key for an image
func ObjectPath(folder, name string) string {
	return fmt.Sprintf("%s/%s.png", folder, name)
}

func (s *mediaService) UploadImage(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, s.maxBytes)
	}

	pngData, err := s.processor.ToPNG(data)
	if err != nil {
		return "", err
	}

	path := ObjectPath(folder, name)
	url, err := s.blobs.Put(ctx, path, pngData, "image/png")
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", path, err)
	}
	log.Printf("[MEDIA] Stored %s (%d bytes)", path, len(pngData))
	return url, nil
}

func (s *mediaService) Delete(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	if err := s.blobs.DeleteByURL(ctx, url); err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete %s: %w", url, err)
	}
	return nil
}
