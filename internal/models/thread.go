// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Thread is a discussion topic inside a category. Its body lives in the
// earliest post of the thread, so PostCount is at least 1 for as long as
// the thread exists.
type Thread struct {
	ID                uuid.UUID  `json:"id"`
	CategoryID        uuid.UUID  `json:"category_id"`
	Title             string     `json:"title"`
	CreatedBy         uuid.UUID  `json:"created_by"`
	CreatedByUsername string     `json:"created_by_username"`
	PostCount         int        `json:"post_count"`
	LastPostAt        time.Time  `json:"last_post_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"` // Set on edit

	// ReplyCount is derived as PostCount-1 for display and never stored.
	ReplyCount int `json:"reply_count"`
}

// Post is a single message within a thread. The earliest post (by
// created_at, then id) is the thread body and cannot be deleted on its own.
type Post struct {
	ID                uuid.UUID  `json:"id"`
	ThreadID          uuid.UUID  `json:"thread_id"`
	Content           string     `json:"content"`
	CreatedBy         uuid.UUID  `json:"created_by"`
	CreatedByUsername string     `json:"created_by_username"`
	CreatedAt         time.Time  `json:"created_at"`
	EditedAt          *time.Time `json:"edited_at,omitempty"`
	IsEdited          bool       `json:"is_edited"`
}
