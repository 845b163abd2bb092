package safe

import (
	"sort"
	"sync"
)

// Map is a concurrency & type safe map
type Map[T any] struct {
	mu   sync.RWMutex
	data map[string]T
}

func NewMap[T any](data map[string]T) *Map[T] {
	return &Map[T]{
		data: data,
	}
}

func (m *Map[T]) Get(key string) T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key]
}

func (m *Map[T]) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

func (m *Map[T]) Set(key string, value T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]T{}
	}
	m.data[key] = value
}

func (m *Map[T]) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *Map[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Range iterates over a copy of the map in key order so fn may modify the map
func (m *Map[T]) Range(fn func(key string, t T) bool) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	copied := make(map[string]T, len(m.data))
	for key, entry := range m.data {
		keys = append(keys, key)
		copied[key] = entry
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	for _, key := range keys {
		if !fn(key, copied[key]) {
			break
		}
	}
}

func (m *Map[T]) AsMap() map[string]T {
	data := map[string]T{}
	m.Range(func(key string, entry T) bool {
		data[key] = entry
		return true
	})
	return data
}
