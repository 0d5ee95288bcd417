// Package app opens the storage, auth and push backends selected by the configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	firebase "firebase.google.com/go/v4"
	_ "github.com/lib/pq"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"PicSphere/internal/config"
	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/identity"
	"PicSphere/internal/core/media"
	"PicSphere/internal/core/notify"
	"PicSphere/internal/db/memory"
	"PicSphere/internal/db/postgres"
	fbadapter "PicSphere/internal/firebase"
)

// Backend is the set of external resources the services run on
type Backend struct {
	Store docstore.Store
	Blobs media.BlobStore
	// Media serves uploads when they are kept in process; nil otherwise
	Media    http.Handler
	Firebase *firebase.App

	closers []func() error
}

// Open connects to the document store and blob store named by cfg.
// Postgres migrations are applied on open.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	if cfg.UsesFirebase() || cfg.FirebaseStorageBucket != "" {
		fbApp, err := fbadapter.NewApp(ctx, fbadapter.Config{
			CredentialsFile: cfg.FirebaseCredentialsFile,
			DatabaseURL:     cfg.FirebaseDatabaseURL,
			StorageBucket:   cfg.FirebaseStorageBucket,
		})
		if err != nil {
			return nil, err
		}
		b.Firebase = fbApp
	}

	switch cfg.StoreBackend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Println("Connected to database")
		if err := postgres.Migrate(db); err != nil {
			b.Close()
			return nil, err
		}
		log.Println("Migrations completed successfully")
		b.Store = postgres.NewDocumentStore(db)
	case "firebase":
		client, err := b.Firebase.Database(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open realtime database: %w", err)
		}
		b.Store = fbadapter.NewStore(client)
	default:
		log.Println("[STORE] Using in-memory store; data is lost on restart")
		b.Store = memory.NewStore()
	}

	if b.Firebase != nil && cfg.FirebaseStorageBucket != "" {
		storageClient, err := b.Firebase.Storage(ctx)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		bucket, err := storageClient.Bucket(cfg.FirebaseStorageBucket)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to open bucket: %w", err)
		}
		b.Blobs = fbadapter.NewBlobStore(bucket, cfg.FirebaseStorageBucket)
	} else {
		blobs := memory.NewBlobStore(cfg.MediaBaseURL)
		b.Blobs = blobs
		b.Media = blobs
	}

	return b, nil
}

// Identity returns the auth provider named by cfg
func (b *Backend) Identity(ctx context.Context, cfg *config.Config) (identity.Provider, error) {
	if cfg.AuthBackend != "firebase" {
		return identity.NewLocalProvider(b.Store, cfg.JWTSecret, cfg.TokenTTL), nil
	}

	authClient, err := b.Firebase.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open firebase auth: %w", err)
	}
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(cfg.FirebaseWebAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}
	return fbadapter.NewAuthProvider(authClient, toolkit), nil
}

// Notifier returns the push sender, or notify.Noop when pushes are off
func (b *Backend) Notifier(ctx context.Context, cfg *config.Config) (notify.Notifier, error) {
	if !cfg.PushNotifications {
		return notify.Noop{}, nil
	}
	client, err := b.Firebase.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open messaging: %w", err)
	}
	return fbadapter.NewNotifier(client), nil
}

// Close releases every connection Open made
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("Failed to close backend resource: %v", err)
		}
	}
	b.closers = nil
}
