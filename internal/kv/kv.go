// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package kv provides the per-visitor key-value storage that stands in for
// browser persistent storage. Values are serialized strings, read and
// written synchronously.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Storage is a string key-value store scoped to one visitor.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string)
	Remove(ctx context.Context, key string)
}

// Renewer is implemented by storages bound to a client credential, such as
// a session cookie, that can be reissued while keeping the stored values.
type Renewer interface {
	Renew(ctx context.Context) error
}

// KeyVisitorID holds the random identifier assigned to a visitor.
const KeyVisitorID = "visitor_id"

// VisitorID returns the visitor's identifier, assigning a new one on first use.
func VisitorID(ctx context.Context, s Storage) string {
	if id, ok := s.Get(ctx, KeyVisitorID); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	s.Put(ctx, KeyVisitorID, id)
	return id
}

// GetJSON decodes the JSON value stored under key.
// It returns false with a nil error when the key is absent.
func GetJSON[T any](ctx context.Context, s Storage, key string) (T, bool, error) {
	var v T
	raw, ok := s.Get(ctx, key)
	if !ok || raw == "" {
		return v, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return v, true, nil
}

// PutJSON stores v as JSON under key.
func PutJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	s.Put(ctx, key, string(data))
	return nil
}

// Memory is a goroutine-safe in-memory Storage.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements Storage.
func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Put implements Storage.
func (m *Memory) Put(_ context.Context, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Remove implements Storage.
func (m *Memory) Remove(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

var _ Storage = (*Memory)(nil)
