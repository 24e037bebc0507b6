package sink

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"foodwaste/internal/food"
)

// MemorySink keeps objects in memory. Safe for concurrent use.
type MemorySink struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{objects: make(map[string][]byte)}
}

func (m *MemorySink) Put(name string, r io.Reader, size int64) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
	return nil
}

func (m *MemorySink) Get(name string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.objects[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("object not found: %s", name)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

func (m *MemorySink) List(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemorySink) Location(name string) string {
	return "memory://" + name
}

// Bytes returns a copy of the stored object, or nil.
func (m *MemorySink) Bytes(name string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.objects[name]; ok {
		return bytes.Clone(data)
	}
	return nil
}

var _ food.Sink = (*MemorySink)(nil)
