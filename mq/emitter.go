// Package mq is the in-process event bus. Handlers emit after a write;
// the live feed subscribes.
package mq

import (
	"sync"

	"github.com/jane4246/coffee-advisory/globals"
	"go.uber.org/zap"
)

type Index struct {
	EntityType string `json:"entity_type"`
	Method     string `json:"method"`
	EntityId   string `json:"entity_id"`
	ItemId     string `json:"item_id,omitempty"`
	ItemType   string `json:"item_type,omitempty"`
	Data       any    `json:"data,omitempty"`
}

type Event struct {
	Name  string `json:"event"`
	Index Index  `json:"index"`
}

type Handler func(Event)

type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

var Default = NewBus()

// Subscribe registers h for every event and returns a func that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Emit delivers synchronously. Handlers must not block.
func (b *Bus) Emit(eventName string, content Index) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	globals.Logger.Debug("event emitted",
		zap.String("event", eventName),
		zap.String("entity", content.EntityType),
		zap.String("id", content.EntityId),
		zap.Int("subscribers", len(handlers)),
	)
	ev := Event{Name: eventName, Index: content}
	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func Emit(eventName string, content Index) error {
	return Default.Emit(eventName, content)
}

func Subscribe(h Handler) func() {
	return Default.Subscribe(h)
}
