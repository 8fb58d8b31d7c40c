// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/kv"
	"github.com/olegiv/folio-go/internal/tokens"
)

// Provider creates per-request managers. It is shared by all requests and
// coalesces duplicate in-flight auth operations of the same visitor.
type Provider struct {
	client  *backend.Client
	gate    Gate
	logger  *slog.Logger
	flights singleflight.Group
}

// NewProvider creates a provider over the backend client.
func NewProvider(client *backend.Client, gate Gate, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{client: client, gate: gate, logger: logger}
}

// Gate returns the role gate used by managers.
func (p *Provider) Gate() Gate {
	return p.gate
}

// Client returns the backend client.
func (p *Provider) Client() *backend.Client {
	return p.client
}

// Manager builds a manager over the visitor storage and restores its state.
func (p *Provider) Manager(ctx context.Context, storage kv.Storage, lang string) *Manager {
	store := tokens.New(storage)
	m := p.newManager(store, p.client.For(store, lang), kv.VisitorID(ctx, storage))
	m.Restore(ctx)
	return m
}

// newManager wires a manager to the provider's in-flight guard.
func (p *Provider) newManager(store *tokens.Store, api Backend, visitor string) *Manager {
	m := NewManager(store, api, p.gate, p.logger)
	m.visitor = visitor
	m.flight = p.do
	return m
}

// do runs fn once per key among concurrent callers. The shared call is
// detached from the first caller's cancellation so that a dropped request
// does not fail the others; the client timeout still bounds it.
func (p *Provider) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	v, err, shared := p.flights.Do(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	if shared {
		p.logger.Debug("coalesced duplicate auth request", "key", key)
	}
	return v, err
}

type contextKey struct{}

// NewContext returns ctx carrying m.
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// FromContext returns the request's manager, or nil.
func FromContext(ctx context.Context) *Manager {
	m, _ := ctx.Value(contextKey{}).(*Manager)
	return m
}
