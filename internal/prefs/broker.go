// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package prefs

import (
	"sync"
)

// subscriberBuffer is how many changes a slow subscriber may lag behind
// before further changes are dropped for it.
const subscriberBuffer = 16

// Change describes one preference write.
type Change struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Broker fans preference changes out to every subscriber of a visitor.
// It is shared by all Stores and safe for concurrent use.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Change
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan Change)}
}

// Subscribe registers a listener for visitorID. The returned cancel
// function unregisters it and closes the channel.
func (b *Broker) Subscribe(visitorID string) (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Change, subscriberBuffer)
	if b.subs[visitorID] == nil {
		b.subs[visitorID] = make(map[int]chan Change)
	}
	b.subs[visitorID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[visitorID], id)
			if len(b.subs[visitorID]) == 0 {
				delete(b.subs, visitorID)
			}
			close(ch)
		})
	}
}

// Publish delivers c to the visitor's subscribers without blocking.
func (b *Broker) Publish(visitorID string, c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[visitorID] {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers returns the number of listeners for visitorID.
func (b *Broker) Subscribers(visitorID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[visitorID])
}
