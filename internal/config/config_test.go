package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "local", cfg.AuthBackend)
	assert.Equal(t, "lru", cfg.CacheBackend)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 1, cfg.FeedConcurrency)
	assert.False(t, cfg.FeedRecencyOrder)
	assert.Equal(t, "", cfg.EdgeWriteMode)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.False(t, cfg.UsesFirebase())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/picsphere")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("FEED_CONCURRENCY", "4")
	t.Setenv("FEED_RECENCY_ORDER", "true")
	t.Setenv("EDGE_WRITE_MODE", "await")
	t.Setenv("MEDIA_BASE_URL", "https://cdn.example/media/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 4, cfg.FeedConcurrency)
	assert.True(t, cfg.FeedRecencyOrder)
	assert.Equal(t, "await", cfg.EdgeWriteMode)
	assert.Equal(t, "https://cdn.example/media", cfg.MediaBaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate_RejectsInconsistentCombinations(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres"}, "DATABASE_URL"},
		{"firebase store without database", map[string]string{"STORE_BACKEND": "firebase", "FIREBASE_STORAGE_BUCKET": "b"}, "FIREBASE_DATABASE_URL"},
		{"unknown store", map[string]string{"STORE_BACKEND": "mongo"}, "STORE_BACKEND"},
		{"redis without addr", map[string]string{"CACHE_BACKEND": "redis"}, "REDIS_ADDR"},
		{"bad edge mode", map[string]string{"EDGE_WRITE_MODE": "eventual"}, "EDGE_WRITE_MODE"},
		{"zero concurrency", map[string]string{"FEED_CONCURRENCY": "0"}, "FEED_CONCURRENCY"},
		{"short session secret", map[string]string{"SESSION_SECRET": "short"}, "SESSION_SECRET"},
		{"firebase auth without key", map[string]string{"AUTH_BACKEND": "firebase"}, "FIREBASE_WEB_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", testSecret)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_LocalAuthNeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestParse_BadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TOKEN_TTL", "forever")
	_, err := Parse()
	assert.Error(t, err)
}
