package prefs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// KV is the durable key-value backend behind the preference store.
// Implementations must make Set durable before returning.
type KV interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// ErrClosed is returned by a KV used after Close.
var ErrClosed = errors.New("prefs: kv closed")

// MemoryKV is a process-local KV, used by tests and by the "memory"
// backend. It is not durable.
type MemoryKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	closed bool

	// FailWrites makes Set and Delete return an error, for exercising
	// write-failure paths.
	FailWrites bool
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements KV.
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.FailWrites {
		return errors.New("prefs: simulated write failure")
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.FailWrites {
		return errors.New("prefs: simulated write failure")
	}
	delete(m.data, key)
	return nil
}

// Close implements KV.
func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// OpenKV opens the named backend ("sqlite", "badger" or "memory") under
// dataDir.
func OpenKV(backend, dataDir string) (KV, error) {
	switch backend {
	case "sqlite", "":
		kv, err := NewSQLiteKV(dataDir)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "badger":
		kv, err := NewBadgerKV(filepath.Join(dataDir, "badger"))
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("prefs: unknown backend %q", backend)
	}
}
