package service

import (
	"context"
	"sync"
)

func NewCancelMap[K comparable]() *CancelMap[K] {
	return &CancelMap[K]{
		cancels: make(map[K]context.CancelFunc),
	}
}

// CancelMap tracks the cancel function of each background loop by key.
type CancelMap[K comparable] struct {
	m       sync.Mutex
	cancels map[K]context.CancelFunc
}

func (m *CancelMap[K]) AddCancel(id K, cf context.CancelFunc) {
	m.m.Lock()
	defer m.m.Unlock()
	if prev, ok := m.cancels[id]; ok {
		prev()
	}
	m.cancels[id] = cf
}

// Call cancels and forgets the loop registered under key.
func (m *CancelMap[K]) Call(key K) {
	m.m.Lock()
	cf, ok := m.cancels[key]
	delete(m.cancels, key)
	m.m.Unlock()
	if ok {
		cf()
	}
}

func (m *CancelMap[K]) CallAll() {
	m.m.Lock()
	cancels := m.cancels
	m.cancels = make(map[K]context.CancelFunc)
	m.m.Unlock()
	for _, cf := range cancels {
		cf()
	}
}
