package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"eventbudget/internal/attachments"
	"eventbudget/internal/config"
	"eventbudget/internal/storage"
	"eventbudget/internal/storage/sqlite"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:       "mongo",
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "budget",
		AttachmentsBucket: "receipts",
		AttachmentsRegion: "eu-south-1",
	}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != MongoBackend || got.MongoDatabase != "budget" || got.AttachmentsBucket != "receipts" {
		t.Errorf("FromAppConfig() = %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("FromAppConfig() should reject unknown backends")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path is required"},
		{"mongo without uri", Config{Type: MongoBackend, MongoDatabase: "x"}, "MongoDB URI is required"},
		{"mongo without database", Config{Type: MongoBackend, MongoURI: "mongodb://x"}, "MongoDB database is required"},
		{"bucket without region", Config{Type: MemoryBackend, AttachmentsBucket: "b"}, "attachments region is required"},
		{"unknown", Config{Type: "sheets"}, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := strings.Join(GetBackendTypeStrings(), ",")
	if got != "sqlite,mongo,memory" {
		t.Errorf("GetBackendTypeStrings() = %s", got)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if _, ok := res.Attachments.(*attachments.MemoryStore); !ok {
		t.Errorf("attachments = %T, want memory store", res.Attachments)
	}
	err = res.Store.RunTransaction(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.Set(ctx, "owners/o/events/e", []byte(`{"id":"e"}`))
	})
	if err != nil {
		t.Fatalf("RunTransaction() error = %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "budget.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if _, ok := res.Store.(*sqlite.Store); !ok {
		t.Errorf("store = %T, want sqlite store", res.Store)
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Error("expected error for sqlite without path")
	}
}
