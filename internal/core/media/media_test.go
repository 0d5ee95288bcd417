package media_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PicSphere/internal/core/media"
	"PicSphere/internal/db/memory"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestImageProcessor_ConvertsToPNG(t *testing.T) {
	p := media.NewProcessor(0, 0)

	out, err := p.ToPNG(jpegBytes(t, 20, 10))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestImageProcessor_ShrinksToBounds(t *testing.T) {
	p := media.NewProcessor(50, 50)

	out, err := p.ToPNG(jpegBytes(t, 200, 100))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestImageProcessor_RejectsGarbage(t *testing.T) {
	p := media.NewProcessor(0, 0)

	_, err := p.ToPNG([]byte("definitely not an image"))
	assert.ErrorIs(t, err, media.ErrUnsupportedFormat)

	_, err = p.ToPNG(nil)
	assert.ErrorIs(t, err, media.ErrUnsupportedFormat)
}

func TestService_UploadImage(t *testing.T) {
	blobs := memory.NewBlobStore("http://media.test")
	svc := media.NewService(blobs, media.NewProcessor(0, 0), 0)

	url, err := svc.UploadImage(context.Background(), media.FolderPosts, "abc", bytes.NewReader(jpegBytes(t, 4, 4)))
	require.NoError(t, err)
	assert.Equal(t, "http://media.test/posts/abc.png", url)
	assert.True(t, blobs.Has("posts/abc.png"))
}

func TestService_UploadImageTooLarge(t *testing.T) {
	blobs := memory.NewBlobStore("http://media.test")
	svc := media.NewService(blobs, media.NewProcessor(0, 0), 16)

	_, err := svc.UploadImage(context.Background(), media.FolderStories, "big", strings.NewReader(strings.Repeat("x", 64)))
	assert.ErrorIs(t, err, media.ErrImageTooLarge)
	assert.False(t, blobs.Has("stories/big.png"))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewBlobStore("http://media.test")
	svc := media.NewService(blobs, media.NewProcessor(0, 0), 0)

	url, err := svc.UploadImage(ctx, media.FolderProfilePictures, "me", bytes.NewReader(jpegBytes(t, 2, 2)))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, url))
	assert.False(t, blobs.Has("profile_picture/me.png"))

	err = svc.Delete(ctx, url)
	assert.ErrorIs(t, err, media.ErrBlobNotFound)

	err = svc.Delete(ctx, "https://elsewhere.example/x.png")
	assert.True(t, errors.Is(err, media.ErrForeignURL))

	assert.NoError(t, svc.Delete(ctx, ""))
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "stories/id.png", media.ObjectPath(media.FolderStories, "id"))
}
