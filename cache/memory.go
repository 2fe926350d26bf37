package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory is a bounded in-process LRU cache whose entries expire after a fixed
// TTL. The clock is injected so expiry can be tested deterministically.
type Memory[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	ll       *list.List
	items    map[string]*list.Element
}

type memoryEntry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// NewMemory creates a cache holding at most capacity entries. A nil clock
// defaults to time.Now.
func NewMemory[V any](capacity int, ttl time.Duration, now func() time.Time) *Memory[V] {
	if capacity <= 0 {
		capacity = 1
	}
	if now == nil {
		now = time.Now
	}
	return &Memory[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	el, ok := m.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*memoryEntry[V])
	if !m.now().Before(e.expires) {
		m.removeElement(el)
		return zero, false
	}
	m.ll.MoveToFront(el)
	return e.value, true
}

func (m *Memory[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expires := m.now().Add(m.ttl)
	if el, ok := m.items[key]; ok {
		e := el.Value.(*memoryEntry[V])
		e.value = value
		e.expires = expires
		m.ll.MoveToFront(el)
		return
	}

	m.items[key] = m.ll.PushFront(&memoryEntry[V]{key: key, value: value, expires: expires})
	for m.ll.Len() > m.capacity {
		m.removeElement(m.ll.Back())
	}
}

func (m *Memory[V]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.removeElement(el)
	}
}

func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ll.Len()
}

func (m *Memory[V]) removeElement(el *list.Element) {
	m.ll.Remove(el)
	delete(m.items, el.Value.(*memoryEntry[V]).key)
}
