package store

import (
	"maps"
	"sync"

	json "github.com/goccy/go-json"
)

// Memory is a non-durable Store. Values are kept encoded so Get never hands
// out aliases of what was Set, matching FileStore semantics.
type Memory struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&mapTx{values: m.values}).Get(key, dst)
}

func (m *Memory) Set(key string, value any) error {
	return m.Update(func(tx Tx) error {
		return tx.Set(key, value)
	})
}

func (m *Memory) Delete(key string) error {
	return m.Update(func(tx Tx) error {
		return tx.Delete(key)
	})
}

func (m *Memory) Update(fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &mapTx{values: maps.Clone(m.values)}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.changed {
		m.values = tx.values
	}
	return nil
}

func (m *Memory) Flush() error {
	return nil
}

// Raw returns the encoded value under key, for assertions on the persisted shape.
func (m *Memory) Raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.values[key]
	return append([]byte(nil), raw...), ok
}
