// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/model"
)

func TestBatches_QueueAndRemove(t *testing.T) {
	e := newTestEnv(t)
	e.login("editor", model.RoleAdmin)

	status, _ := e.do(http.MethodGet, "/api/admin/batches/drafts", nil)
	require.Equal(t, http.StatusNotFound, status)

	status, invalid := call[any](e, http.MethodPost, "/api/admin/batches/posts", BatchRequest{Title: "No body"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, invalid.Error.Details, "body")

	status, first := call[BatchItemView](e, http.MethodPost, "/api/admin/batches/posts", BatchRequest{
		Title:       "Draft one",
		Body:        "Text",
		CategoryKey: "life",
		ImageName:   "one.png",
		Image:       pngBytes(t),
	})
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, first.Data.ID)
	assert.Positive(t, first.Data.ImageSize)

	_, _ = call[BatchItemView](e, http.MethodPost, "/api/admin/batches/posts", BatchRequest{Title: "Draft two", Body: "Text"})

	status, list := call[[]BatchItemView](e, http.MethodGet, "/api/admin/batches/posts", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "Draft one", list.Data[0].Title)

	status, _ = e.do(http.MethodDelete, "/api/admin/batches/posts/"+first.Data.ID, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = e.do(http.MethodDelete, "/api/admin/batches/posts/"+first.Data.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = e.do(http.MethodDelete, "/api/admin/batches/posts", nil)
	require.Equal(t, http.StatusNoContent, status)
	_, list = call[[]BatchItemView](e, http.MethodGet, "/api/admin/batches/posts", nil)
	assert.Empty(t, list.Data)

	_, prefsSnap := call[map[string]any](e, http.MethodGet, "/api/prefs", nil)
	assert.EqualValues(t, 0, prefsSnap.Data["pendingPosts"])
}

func TestBatches_PortfolioNeedsImage(t *testing.T) {
	e := newTestEnv(t)
	e.login("editor", model.RoleAdmin)

	status, env := call[any](e, http.MethodPost, "/api/admin/batches/portfolio", BatchRequest{Title: "Dunes"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Details, "image")
}

func TestBatches_PublishStopsAtFirstFailure(t *testing.T) {
	e := newTestEnv(t)
	e.login("editor", model.RoleAdmin)

	_, _ = call[BatchItemView](e, http.MethodPost, "/api/admin/batches/posts", BatchRequest{Title: "Text only", Body: "No image"})
	_, _ = call[BatchItemView](e, http.MethodPost, "/api/admin/batches/posts", BatchRequest{Title: "With image", Body: "Photo", Image: pngBytes(t)})
	_, _ = call[BatchItemView](e, http.MethodPost, "/api/admin/batches/posts", BatchRequest{Title: "After", Body: "Never reached"})

	status, env := call[PublishResult](e, http.MethodPost, "/api/admin/batches/posts/publish", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, env.Data.Published, 1)
	assert.Equal(t, 2, env.Data.Remaining)
	require.NotNil(t, env.Data.Failed)
	assert.Equal(t, "With image", env.Data.Failed.Title)
	assert.Equal(t, "Image uploads are not configured", env.Data.Failed.Message)

	posts := e.fb.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "Text only", posts[0].Title)

	_, list := call[[]BatchItemView](e, http.MethodGet, "/api/admin/batches/posts", nil)
	assert.Len(t, list.Data, 2)
}

func TestBatches_PublishUploadsImages(t *testing.T) {
	store := &fakeImageStore{}
	e := newTestEnv(t, withMedia(store))
	e.login("editor", model.RoleAdmin)

	_, _ = call[BatchItemView](e, http.MethodPost, "/api/admin/batches/portfolio", BatchRequest{
		Title:       "Dunes",
		Body:        "Sahara at dawn",
		CategoryKey: "landscape",
		ImageName:   "dunes.png",
		Image:       pngBytes(t),
	})

	status, env := call[PublishResult](e, http.MethodPost, "/api/admin/batches/portfolio/publish", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.Data.Failed)
	assert.Len(t, env.Data.Published, 1)
	assert.Zero(t, env.Data.Remaining)

	items := e.fb.PortfolioItems()
	require.Len(t, items, 1)
	assert.Equal(t, "Sahara at dawn", items[0].Description)
	assert.Contains(t, items[0].ImageURL, "https://res.example.com/dunes-")
	assert.Len(t, store.Uploads(), 1)

	_, list := call[[]BatchItemView](e, http.MethodGet, "/api/admin/batches/portfolio", nil)
	assert.Empty(t, list.Data)
}
