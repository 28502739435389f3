package credstore

import "sync"

var _ Store = (*Memory)(nil)

// Memory is a process-lifetime store. On web surfaces it is the fallback
// when no durable browser-local store is available; data is lost on reload,
// which is a documented limitation rather than a bug.
type Memory struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.values[key], nil
}

func (m *Memory) Set(key, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) RemoveMany(keys []string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

// Len reports the number of stored entries.
func (m *Memory) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.values)
}
