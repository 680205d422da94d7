// Package backend builds the document and attachment stores selected by
// configuration.
package backend

import (
	"context"
	"fmt"

	"eventbudget/internal/attachments"
	"eventbudget/internal/log"
	"eventbudget/internal/storage"
	"eventbudget/internal/storage/memory"
	"eventbudget/internal/storage/mongo"
	"eventbudget/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	files, err := f.createAttachments(ctx, config)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &BackendResult{
		Store:       store,
		Attachments: files,
		Cleanup:     store.Close,
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		store, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return store, nil
	case MongoBackend:
		store, err := mongo.Connect(ctx, config.MongoURI, config.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized MongoDB backend", "database", config.MongoDatabase)
		return store, nil
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAttachments(ctx context.Context, config Config) (attachments.Store, error) {
	if config.AttachmentsBucket == "" {
		f.logger.InfoContext(ctx, "No attachments bucket configured, keeping attachments in memory")
		return attachments.NewMemoryStore(), nil
	}
	files, err := attachments.NewS3Store(ctx, config.AttachmentsBucket, config.AttachmentsRegion, config.AttachmentsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize attachment store: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized S3 attachment store",
		"bucket", config.AttachmentsBucket,
		"region", config.AttachmentsRegion)
	return files, nil
}

// Close runs the cleanup of r, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}
