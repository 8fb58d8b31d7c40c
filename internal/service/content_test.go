// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/cache"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/testutil"
	"github.com/olegiv/folio-go/internal/testutil/fakebackend"
)

type staticTokens string

func (s staticTokens) AccessToken(context.Context) string { return string(s) }
func (s staticTokens) Clear(context.Context) error        { return nil }

func newContentService(t *testing.T) (*ContentService, *fakebackend.Server, *backend.Client) {
	t.Helper()
	fb := fakebackend.New(t)
	client := backend.New(fb.URL, 5*time.Second, testutil.TestLoggerSilent())
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mem.Close() })
	cc := cache.NewContentCache(mem, time.Minute, testutil.TestLoggerSilent())
	return NewContentService(client, cc, nil, testutil.TestLoggerSilent()), fb, client
}

func adminAPI(fb *fakebackend.Server, client *backend.Client) *backend.API {
	admin := fb.AddUser("editor", "editor@example.com", "secret", model.RoleAdmin)
	return client.For(staticTokens(fb.IssueToken(admin.ID)), "en")
}

func TestContentService_PostsAreCached(t *testing.T) {
	svc, fb, _ := newContentService(t)
	fb.AddPost(model.Post{Title: "First", Content: "Hello **world**"})
	ctx := context.Background()

	posts, err := svc.Posts(ctx, "en")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello world", posts[0].Excerpt)

	_, err = svc.Posts(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, fb.Hits("GET /content/posts"))

	_, err = svc.Posts(ctx, "ru")
	require.NoError(t, err)
	assert.Equal(t, 2, fb.Hits("GET /content/posts"), "each language is cached separately")
	assert.Contains(t, fb.Languages(), "ru")
}

func TestContentService_PostDetailRendersMarkdown(t *testing.T) {
	svc, fb, _ := newContentService(t)
	p := fb.AddPost(model.Post{
		Title:            "Trip",
		Content:          "# Day one\n\n<script>alert(1)</script>Left at dawn.\n\nWent **north**.",
		ContentLocalized: "Поехали *на север*.",
	})

	d, err := svc.PostDetail(context.Background(), p.ID, "en")
	require.NoError(t, err)

	assert.Contains(t, string(d.HTML), "<strong>north</strong>")
	assert.Contains(t, string(d.HTML), "<h1")
	assert.Contains(t, string(d.HTML), "Left at dawn.")
	assert.NotContains(t, string(d.HTML), "<script>")
	assert.NotContains(t, string(d.HTML), "alert(1)")
	assert.Contains(t, string(d.LocalizedHTML), "<em>на север</em>")
}

func TestContentService_PostNotFound(t *testing.T) {
	svc, _, _ := newContentService(t)

	_, err := svc.PostDetail(context.Background(), 999, "en")
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusNotFound))
}

func TestContentService_WritesInvalidate(t *testing.T) {
	svc, fb, client := newContentService(t)
	api := adminAPI(fb, client)
	ctx := context.Background()

	posts, err := svc.Posts(ctx, "en")
	require.NoError(t, err)
	assert.Empty(t, posts)

	created, err := svc.CreatePost(ctx, api, model.PostInput{Title: "New", Content: "Body", CategoryKey: "travel"})
	require.NoError(t, err)

	posts, err = svc.Posts(ctx, "en")
	require.NoError(t, err)
	require.Len(t, posts, 1, "create must drop the cached list")

	_, err = svc.UpdatePost(ctx, api, created.ID, model.PostInput{Title: "Renamed", Content: "Body"})
	require.NoError(t, err)
	posts, err = svc.Posts(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", posts[0].Title)

	require.NoError(t, svc.DeletePost(ctx, api, created.ID))
	posts, err = svc.Posts(ctx, "en")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestContentService_PortfolioWrites(t *testing.T) {
	svc, fb, client := newContentService(t)
	api := adminAPI(fb, client)
	ctx := context.Background()

	_, err := svc.Portfolio(ctx, "en")
	require.NoError(t, err)

	it, err := svc.CreatePortfolioItem(ctx, api, model.PortfolioInput{Title: "Dunes", ImageURL: "https://img/dunes.jpg"})
	require.NoError(t, err)

	items, err := svc.Portfolio(ctx, "en")
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = svc.UpdatePortfolioItem(ctx, api, it.ID, model.PortfolioInput{Title: "Dunes at dusk", ImageURL: it.ImageURL})
	require.NoError(t, err)
	items, err = svc.Portfolio(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, "Dunes at dusk", items[0].Title)

	require.NoError(t, svc.DeletePortfolioItem(ctx, api, it.ID))
	items, err = svc.Portfolio(ctx, "en")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestContentService_WriteRejectedLeavesCache(t *testing.T) {
	svc, fb, client := newContentService(t)
	fb.AddPost(model.Post{Title: "Kept"})
	reader := fb.AddUser("reader", "reader@example.com", "secret", model.RoleUser)
	api := client.For(staticTokens(fb.IssueToken(reader.ID)), "en")
	ctx := context.Background()

	_, err := svc.Posts(ctx, "en")
	require.NoError(t, err)

	_, err = svc.CreatePost(ctx, api, model.PostInput{Title: "Nope"})
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusForbidden))

	_, err = svc.Posts(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, fb.Hits("GET /content/posts"))
}

func TestContentService_Warm(t *testing.T) {
	svc, fb, _ := newContentService(t)
	fb.AddPost(model.Post{Title: "Warm", Content: strings.Repeat("word ", 10)})
	fb.AddPortfolioItem(model.PortfolioItem{Title: "Frame"})
	ctx := context.Background()

	require.NoError(t, svc.Warm(ctx, []string{"en", "ru"}))
	assert.Equal(t, 2, fb.Hits("GET /content/posts"))

	_, err := svc.Posts(ctx, "ru")
	require.NoError(t, err)
	_, err = svc.Portfolio(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, 2, fb.Hits("GET /content/posts"), "warmed lists are served from cache")
	assert.Equal(t, 2, fb.Hits("GET /content/portfolio"))

	svc.Invalidate(ctx)
	_, err = svc.Posts(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, 3, fb.Hits("GET /content/posts"))
}

func TestContentService_WarmReportsFailure(t *testing.T) {
	svc, fb, _ := newContentService(t)
	fb.Close()

	err := svc.Warm(context.Background(), []string{"en"})
	require.Error(t, err)
	assert.True(t, backend.IsTransport(err))
}
