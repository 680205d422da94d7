package attachments

import (
	"context"
	"fmt"
	"io"
	"sync"

	"eventbudget/internal/idgen"
)

// MemoryStore keeps attachments in process. Used by the memory backend and
// in tests.
type MemoryStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	failing map[string]error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte), failing: make(map[string]error)}
}

func (m *MemoryStore) Upload(_ context.Context, ownerID, filename, _ string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	id, err := idgen.New(idgen.FilePrefix)
	if err != nil {
		return "", err
	}
	url := "memory://attachments/" + ownerID + "/" + id + "-" + cleanName(filename)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[url] = data
	return url, nil
}

// Put registers a file under url, for seeding tests.
func (m *MemoryStore) Put(url string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[url] = data
}

// FailDelete makes DeleteByURL(url) return err.
func (m *MemoryStore) FailDelete(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[url] = err
}

func (m *MemoryStore) DeleteByURL(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing[url]; err != nil {
		return err
	}
	if _, ok := m.files[url]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownURL, url)
	}
	delete(m.files, url)
	return nil
}

// Has reports whether url is stored.
func (m *MemoryStore) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[url]
	return ok
}
