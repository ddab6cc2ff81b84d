// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"testing"
)

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name        string
		catName     string
		description string
		wantErr     bool
	}{
		{"valid", "General", "Anything goes", false},
		{"valid without description", "General", "", false},
		{"empty name", "", "desc", true},
		{"whitespace name", "   ", "desc", true},
		{"name at limit", strings.Repeat("a", 100), "", false},
		{"name too long", strings.Repeat("a", 101), "", true},
		{"description too long", "General", strings.Repeat("d", 1001), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateCategory(tt.catName, tt.description)
			if (msg != "") != tt.wantErr {
				t.Errorf("validateCategory(%q, …) = %q, wantErr=%v", tt.catName, msg, tt.wantErr)
			}
		})
	}
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{"valid", "How do I…?", false},
		{"empty", "", true},
		{"whitespace only", " \t ", true},
		{"at limit", strings.Repeat("t", 300), false},
		{"too long", strings.Repeat("t", 301), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateTitle(tt.title)
			if (msg != "") != tt.wantErr {
				t.Errorf("validateTitle(%q) = %q, wantErr=%v", tt.title, msg, tt.wantErr)
			}
		})
	}
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", "A perfectly fine post.", false},
		{"empty", "", true},
		{"whitespace only", "\n\n", true},
		{"at limit", strings.Repeat("c", 50_000), false},
		{"too long", strings.Repeat("c", 50_001), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateContent(tt.content)
			if (msg != "") != tt.wantErr {
				t.Errorf("validateContent(len=%d) = %q, wantErr=%v", len(tt.content), msg, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "forum_user", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"at limit", strings.Repeat("u", 50), false},
		{"too long", strings.Repeat("u", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateUsername(tt.username)
			if (msg != "") != tt.wantErr {
				t.Errorf("validateUsername(%q) = %q, wantErr=%v", tt.username, msg, tt.wantErr)
			}
		})
	}
}

func TestValidateProfilePicture(t *testing.T) {
	if msg := validateProfilePicture(""); msg != "" {
		t.Errorf("empty URL should be allowed, got %q", msg)
	}
	if msg := validateProfilePicture(strings.Repeat("u", 2001)); msg == "" {
		t.Error("oversized URL should be rejected")
	}
}
