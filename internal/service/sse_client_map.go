package service

import (
	"sync"
)

const clientBuffer = 16

func NewSSEClientMap[T any]() *SSEClientMap[T] {
	return &SSEClientMap[T]{
		clients: make(map[string]map[string]chan T),
	}
}

// SSEClientMap holds one buffered channel per connected client, grouped by
// topic. Slow clients miss messages instead of blocking the sender.
type SSEClientMap[T any] struct {
	m       sync.Mutex
	clients map[string]map[string]chan T
}

func (cm *SSEClientMap[T]) AddClient(topic, uid string) chan T {
	cm.m.Lock()
	defer cm.m.Unlock()
	if cm.clients[topic] == nil {
		cm.clients[topic] = make(map[string]chan T)
	}
	ch := make(chan T, clientBuffer)
	cm.clients[topic][uid] = ch
	return ch
}

func (cm *SSEClientMap[T]) RemoveClient(topic, uid string) {
	cm.m.Lock()
	defer cm.m.Unlock()
	ch, ok := cm.clients[topic][uid]
	if !ok {
		return
	}
	close(ch)
	delete(cm.clients[topic], uid)
	if len(cm.clients[topic]) == 0 {
		delete(cm.clients, topic)
	}
}

func (cm *SSEClientMap[T]) SendToClients(topic string, message T) {
	cm.m.Lock()
	defer cm.m.Unlock()
	for _, ch := range cm.clients[topic] {
		select {
		case ch <- message:
		default:
		}
	}
}

func (cm *SSEClientMap[T]) ClientCount(topic string) int {
	cm.m.Lock()
	defer cm.m.Unlock()
	return len(cm.clients[topic])
}
