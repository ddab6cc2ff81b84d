package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for forum fields.
const (
	maxUsernameLen     = 50
	maxTitleLen        = 300
	maxContentLen      = 50_000
	maxCategoryNameLen = 100
	maxDescriptionLen  = 1_000
	maxPictureURLLen   = 2_000
)

// validateCategory checks category form inputs and returns the first error found.
func validateCategory(name, description string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Category name is required."
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return "Category name is too long (max 100 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)."
	}
	return ""
}

// validateTitle checks a thread title and returns the first error found.
func validateTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Thread title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Thread title is too long (max 300 characters)."
	}
	return ""
}

// validateContent checks a post body and returns the first error found.
func validateContent(content string) string {
	if strings.TrimSpace(content) == "" {
		return "Content is required."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 50,000 characters)."
	}
	return ""
}

// validateUsername checks a username and returns the first error found.
func validateUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "Username is required."
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "Username is too long (max 50 characters)."
	}
	return ""
}

// validateProfilePicture checks the profile picture URL length.
func validateProfilePicture(url string) string {
	if utf8.RuneCountInString(url) > maxPictureURLLen {
		return "Profile picture URL is too long (max 2,000 characters)."
	}
	return ""
}
