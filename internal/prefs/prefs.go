// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package prefs holds the visitor's persistent UI preferences: theme,
// sidebar state, pending content batches and the portfolio scroll window.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/folio-go/internal/content"
	"github.com/olegiv/folio-go/internal/kv"
)

// Storage keys.
const (
	KeyTheme            = "theme"
	KeySidebarCollapsed = "sidebarCollapsed"
	KeyPortfolioWindow  = "portfolioWindow"
	keyBatchPrefix      = "pendingBatch:"
)

// Theme is the UI color scheme.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme is returned when no theme is stored.
const DefaultTheme = ThemeLight

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// BatchKind names a pending batch queue.
type BatchKind string

// Batch kinds.
const (
	BatchPosts     BatchKind = "posts"
	BatchPortfolio BatchKind = "portfolio"
)

// Valid reports whether k is a known batch kind.
func (k BatchKind) Valid() bool {
	return k == BatchPosts || k == BatchPortfolio
}

// Errors returned by Store.
var (
	ErrInvalidTheme     = errors.New("invalid theme")
	ErrInvalidBatchKind = errors.New("invalid batch kind")
	ErrBatchItemMissing = errors.New("batch item not found")
)

// BatchItem is a drafted post or portfolio item waiting for its image
// upload. Body is the post content or the portfolio description.
type BatchItem struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	TitleLocalized string    `json:"titleLocalized,omitempty"`
	Body           string    `json:"body,omitempty"`
	BodyLocalized  string    `json:"bodyLocalized,omitempty"`
	CategoryKey    string    `json:"categoryKey"`
	Date           time.Time `json:"date"`
	ImageName      string    `json:"imageName,omitempty"`
	Image          []byte    `json:"image,omitempty"`
	QueuedAt       time.Time `json:"queuedAt"`
}

// Store reads and writes one visitor's preferences.
type Store struct {
	storage kv.Storage
	broker  *Broker
}

// New creates a store. broker may be nil when nobody listens.
func New(storage kv.Storage, broker *Broker) *Store {
	return &Store{storage: storage, broker: broker}
}

// Subscribe listens for changes made by any request of this visitor.
func (s *Store) Subscribe(ctx context.Context) (<-chan Change, func()) {
	if s.broker == nil {
		ch := make(chan Change)
		close(ch)
		return ch, func() {}
	}
	return s.broker.Subscribe(kv.VisitorID(ctx, s.storage))
}

func (s *Store) publish(ctx context.Context, key string, value any) {
	if s.broker != nil {
		s.broker.Publish(kv.VisitorID(ctx, s.storage), Change{Key: key, Value: value})
	}
}

// Theme returns the stored theme or DefaultTheme.
func (s *Store) Theme(ctx context.Context) Theme {
	v, ok := s.storage.Get(ctx, KeyTheme)
	if t := Theme(v); ok && t.Valid() {
		return t
	}
	return DefaultTheme
}

// SetTheme stores the theme.
func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	s.storage.Put(ctx, KeyTheme, string(t))
	s.publish(ctx, KeyTheme, t)
	return nil
}

// SidebarCollapsed returns the stored sidebar state, false by default.
func (s *Store) SidebarCollapsed(ctx context.Context) bool {
	v, ok, err := kv.GetJSON[bool](ctx, s.storage, KeySidebarCollapsed)
	return ok && err == nil && v
}

// SetSidebarCollapsed stores the sidebar state.
func (s *Store) SetSidebarCollapsed(ctx context.Context, collapsed bool) error {
	if err := kv.PutJSON(ctx, s.storage, KeySidebarCollapsed, collapsed); err != nil {
		return err
	}
	s.publish(ctx, KeySidebarCollapsed, collapsed)
	return nil
}

// PortfolioWindow returns the stored scroll window, or a fresh one.
func (s *Store) PortfolioWindow(ctx context.Context, sizes content.WindowSizes) content.Window {
	w, ok, err := kv.GetJSON[content.Window](ctx, s.storage, KeyPortfolioWindow)
	if !ok || err != nil || w.DisplayCount <= 0 {
		return content.NewWindow(sizes)
	}
	return w
}

// SetPortfolioWindow stores the scroll window.
func (s *Store) SetPortfolioWindow(ctx context.Context, w content.Window) error {
	if err := kv.PutJSON(ctx, s.storage, KeyPortfolioWindow, w); err != nil {
		return err
	}
	s.publish(ctx, KeyPortfolioWindow, w)
	return nil
}

// Batch returns the pending items of kind in queue order.
func (s *Store) Batch(ctx context.Context, kind BatchKind) ([]BatchItem, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBatchKind, kind)
	}
	items, _, err := kv.GetJSON[[]BatchItem](ctx, s.storage, keyBatchPrefix+string(kind))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []BatchItem{}
	}
	return items, nil
}

// SetBatch replaces the pending items of kind. An empty list removes the key.
func (s *Store) SetBatch(ctx context.Context, kind BatchKind, items []BatchItem) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidBatchKind, kind)
	}
	key := keyBatchPrefix + string(kind)
	if len(items) == 0 {
		s.storage.Remove(ctx, key)
	} else if err := kv.PutJSON(ctx, s.storage, key, items); err != nil {
		return err
	}
	s.publish(ctx, key, len(items))
	return nil
}

// Enqueue appends item to the batch, assigning its ID and queue time.
func (s *Store) Enqueue(ctx context.Context, kind BatchKind, item BatchItem) (BatchItem, error) {
	items, err := s.Batch(ctx, kind)
	if err != nil {
		return BatchItem{}, err
	}
	item.ID = uuid.NewString()
	item.QueuedAt = time.Now().UTC()
	if err := s.SetBatch(ctx, kind, append(items, item)); err != nil {
		return BatchItem{}, err
	}
	return item, nil
}

// Dequeue removes one item from the batch.
func (s *Store) Dequeue(ctx context.Context, kind BatchKind, id string) error {
	items, err := s.Batch(ctx, kind)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(items, func(it BatchItem) bool { return it.ID == id })
	if i < 0 {
		return ErrBatchItemMissing
	}
	return s.SetBatch(ctx, kind, slices.Delete(items, i, i+1))
}

// Snapshot is every preference at once.
type Snapshot struct {
	Theme            Theme          `json:"theme"`
	SidebarCollapsed bool           `json:"sidebarCollapsed"`
	PendingPosts     int            `json:"pendingPosts"`
	PendingPortfolio int            `json:"pendingPortfolio"`
	PortfolioWindow  content.Window `json:"portfolioWindow"`
}

// Snapshot reads every preference. Unreadable batches count as empty.
func (s *Store) Snapshot(ctx context.Context, sizes content.WindowSizes) Snapshot {
	posts, _ := s.Batch(ctx, BatchPosts)
	portfolio, _ := s.Batch(ctx, BatchPortfolio)
	return Snapshot{
		Theme:            s.Theme(ctx),
		SidebarCollapsed: s.SidebarCollapsed(ctx),
		PendingPosts:     len(posts),
		PendingPortfolio: len(portfolio),
		PortfolioWindow:  s.PortfolioWindow(ctx, sizes),
	}
}
