// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"threadpress/internal/middleware"
	"threadpress/internal/models"
	"threadpress/internal/store"
)

// Forum handles the category, thread and post endpoints. Handlers only
// parse, validate shape and render; every permission decision and counter
// update lives in the stores.
type Forum struct {
	categories *store.CategoryStore
	threads    *store.ThreadStore
}

// NewForum returns the forum content handler group.
func NewForum(categories *store.CategoryStore, threads *store.ThreadStore) *Forum {
	return &Forum{categories: categories, threads: threads}
}

// urlID parses the named URL parameter as a UUID. Writes a 404 and returns
// false when the parameter is malformed — a non-UUID never names a resource.
func urlID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

// ListCategories returns all categories in display order.
// GET /api/v1/categories
func (h *Forum) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.List(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if items == nil {
		items = []models.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": items})
}

// GetCategory returns a single category.
// GET /api/v1/categories/{categoryID}
func (h *Forum) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "categoryID")
	if !ok {
		return
	}
	c, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCategory adds a category at the end of the display order.
// POST /api/v1/categories
func (h *Forum) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateCategory(req.Name, req.Description); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	c, err := h.categories.Create(r.Context(), middleware.UserIDFromCtx(r.Context()), req.Name, req.Description)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory renames a category.
// PUT /api/v1/categories/{categoryID}
func (h *Forum) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "categoryID")
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateCategory(req.Name, req.Description); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	actorID := middleware.UserIDFromCtx(r.Context())
	if err := h.categories.Rename(r.Context(), actorID, id, req.Name, req.Description); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCategory removes an empty category.
// DELETE /api/v1/categories/{categoryID}
func (h *Forum) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "categoryID")
	if !ok {
		return
	}
	actorID := middleware.UserIDFromCtx(r.Context())
	if err := h.categories.Delete(r.Context(), actorID, id); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveCategoryUp swaps a category with its predecessor in display order.
// POST /api/v1/categories/{categoryID}/move-up
func (h *Forum) MoveCategoryUp(w http.ResponseWriter, r *http.Request) {
	h.moveCategory(w, r, h.categories.MoveUp)
}

// MoveCategoryDown swaps a category with its successor in display order.
// POST /api/v1/categories/{categoryID}/move-down
func (h *Forum) MoveCategoryDown(w http.ResponseWriter, r *http.Request) {
	h.moveCategory(w, r, h.categories.MoveDown)
}

func (h *Forum) moveCategory(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, actorID, id uuid.UUID) (bool, error)) {
	id, ok := urlID(w, r, "categoryID")
	if !ok {
		return
	}
	moved, err := move(r.Context(), middleware.UserIDFromCtx(r.Context()), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"moved": moved})
}

// ListThreads returns a category's threads, newest first.
// GET /api/v1/categories/{categoryID}/threads
func (h *Forum) ListThreads(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "categoryID")
	if !ok {
		return
	}
	items, err := h.threads.ListByCategory(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if items == nil {
		items = []models.Thread{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"threads": items})
}

// GetThread returns a thread with all of its posts in chronological order.
// GET /api/v1/threads/{threadID}
func (h *Forum) GetThread(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "threadID")
	if !ok {
		return
	}
	t, posts, err := h.threads.GetWithPosts(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"thread": t, "posts": posts})
}

// CreateThread opens a new thread; its body becomes the first post.
// POST /api/v1/threads
func (h *Forum) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID uuid.UUID `json:"category_id"`
		Title      string    `json:"title"`
		Body       string    `json:"body"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateTitle(req.Title); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if msg := validateContent(req.Body); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	actorID := middleware.UserIDFromCtx(r.Context())
	threadID, err := h.threads.CreateThread(r.Context(), actorID, req.CategoryID, req.Title, req.Body)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": threadID})
}

// UpdateThread retitles a thread and optionally rewrites its body.
// PUT /api/v1/threads/{threadID}
func (h *Forum) UpdateThread(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "threadID")
	if !ok {
		return
	}
	var req struct {
		Title string  `json:"title"`
		Body  *string `json:"body"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateTitle(req.Title); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if req.Body != nil {
		if msg := validateContent(*req.Body); msg != "" {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}

	actorID := middleware.UserIDFromCtx(r.Context())
	if err := h.threads.UpdateThread(r.Context(), actorID, id, req.Title, req.Body); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteThread removes a thread and all of its posts.
// DELETE /api/v1/threads/{threadID}
func (h *Forum) DeleteThread(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "threadID")
	if !ok {
		return
	}
	actorID := middleware.UserIDFromCtx(r.Context())
	if err := h.threads.DeleteThread(r.Context(), actorID, id); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatePost appends a reply to a thread.
// POST /api/v1/threads/{threadID}/posts
func (h *Forum) CreatePost(w http.ResponseWriter, r *http.Request) {
	threadID, ok := urlID(w, r, "threadID")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateContent(req.Content); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	actorID := middleware.UserIDFromCtx(r.Context())
	postID, err := h.threads.CreatePost(r.Context(), actorID, threadID, req.Content)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": postID})
}

// UpdatePost replaces a post's content.
// PUT /api/v1/posts/{postID}
func (h *Forum) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "postID")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateContent(req.Content); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	actorID := middleware.UserIDFromCtx(r.Context())
	if err := h.threads.UpdatePost(r.Context(), actorID, id, req.Content); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePost removes a reply. The thread's first post cannot be deleted.
// DELETE /api/v1/threads/{threadID}/posts/{postID}
func (h *Forum) DeletePost(w http.ResponseWriter, r *http.Request) {
	threadID, ok := urlID(w, r, "threadID")
	if !ok {
		return
	}
	postID, ok := urlID(w, r, "postID")
	if !ok {
		return
	}

	actorID := middleware.UserIDFromCtx(r.Context())
	if err := h.threads.DeletePost(r.Context(), actorID, postID, threadID); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
