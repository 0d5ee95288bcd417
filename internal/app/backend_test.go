package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PicSphere/internal/config"
	"PicSphere/internal/core/identity"
	"PicSphere/internal/core/notify"
	"PicSphere/internal/db/memory"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StoreBackend: "memory",
		AuthBackend:  "local",
		JWTSecret:    "0123456789abcdef0123456789abcdef",
		TokenTTL:     time.Hour,
		MediaBaseURL: "http://localhost:8080/media",
	}
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, memoryConfig())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &memory.Store{}, b.Store)
	assert.IsType(t, &memory.BlobStore{}, b.Blobs)
	assert.NotNil(t, b.Media)
	assert.Nil(t, b.Firebase)

	provider, err := b.Identity(ctx, memoryConfig())
	require.NoError(t, err)
	assert.IsType(t, &identity.LocalProvider{}, provider)

	n, err := b.Notifier(ctx, memoryConfig())
	require.NoError(t, err)
	assert.Equal(t, notify.Noop{}, n)
}
