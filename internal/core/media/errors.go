package media

import "errors"

var (
	// ErrUnsupportedFormat is returned when an upload is not a decodable JPEG, PNG or WebP image.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrImageTooLarge is returned when an upload exceeds the configured byte limit.
	ErrImageTooLarge = errors.New("image exceeds size limit")

	// ErrProcessingFailed is returned when an image decodes but cannot be re-encoded.
	ErrProcessingFailed = errors.New("image processing failed")

	// ErrBlobNotFound is returned by a BlobStore when the object behind a URL is already gone.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrForeignURL is returned when a URL does not point into the configured blob store.
	ErrForeignURL = errors.New("url does not belong to this blob store")
)
