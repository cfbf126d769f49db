// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package chat

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Validation limits for domain types.
const (
	MaxNameLength    = 100
	MaxTopicLength   = 1024
	MaxContentLength = 4000
	MaxEmojiLength   = 64
	MaxFileNameLen   = 255
)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// colorRegex matches a hex display color like "#99aab5".
var colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateName checks a group, role, or channel name.
// Names must be non-empty, valid UTF-8, free of control characters, and
// within the length limit.
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if !utf8.ValidString(name) {
		return &ValidationError{Field: "name", Message: "must be valid UTF-8"}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("exceeds maximum length of %d", MaxNameLength)}
	}
	if hasControlChars(name) {
		return &ValidationError{Field: "name", Message: "cannot contain control characters"}
	}
	return nil
}

// ValidateColor checks a role display color. Empty is allowed; the UI falls
// back to its neutral tone.
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if !colorRegex.MatchString(color) {
		return &ValidationError{Field: "color", Message: "must be a hex color like #99aab5"}
	}
	return nil
}

// ValidateTopic checks a channel topic. Topics may be empty.
func ValidateTopic(topic string) error {
	if topic == "" {
		return nil
	}
	if !utf8.ValidString(topic) {
		return &ValidationError{Field: "topic", Message: "must be valid UTF-8"}
	}
	if len(topic) > MaxTopicLength {
		return &ValidationError{Field: "topic", Message: fmt.Sprintf("exceeds maximum length of %d", MaxTopicLength)}
	}
	if hasControlCharsExceptWhitespace(topic) {
		return &ValidationError{Field: "topic", Message: "cannot contain control characters (except newline/tab)"}
	}
	return nil
}

// ValidateContent checks message content.
func ValidateContent(content string) error {
	if content == "" {
		return &ValidationError{Field: "content", Message: "cannot be empty"}
	}
	if !utf8.ValidString(content) {
		return &ValidationError{Field: "content", Message: "must be valid UTF-8"}
	}
	if len(content) > MaxContentLength {
		return &ValidationError{Field: "content", Message: fmt.Sprintf("exceeds maximum length of %d", MaxContentLength)}
	}
	if hasControlCharsExceptWhitespace(content) {
		return &ValidationError{Field: "content", Message: "cannot contain control characters (except newline/tab)"}
	}
	return nil
}

// ValidateEmoji checks a reaction emoji token.
func ValidateEmoji(emoji string) error {
	if emoji == "" {
		return &ValidationError{Field: "emoji", Message: "cannot be empty"}
	}
	if !utf8.ValidString(emoji) {
		return &ValidationError{Field: "emoji", Message: "must be valid UTF-8"}
	}
	if len(emoji) > MaxEmojiLength {
		return &ValidationError{Field: "emoji", Message: fmt.Sprintf("exceeds maximum length of %d", MaxEmojiLength)}
	}
	return nil
}

// ValidateFileName checks an attachment file name.
func ValidateFileName(name string) error {
	if name == "" {
		return &ValidationError{Field: "file_name", Message: "cannot be empty"}
	}
	if len(name) > MaxFileNameLen {
		return &ValidationError{Field: "file_name", Message: fmt.Sprintf("exceeds maximum length of %d", MaxFileNameLen)}
	}
	if hasControlChars(name) {
		return &ValidationError{Field: "file_name", Message: "cannot contain control characters"}
	}
	return nil
}

// hasControlChars returns true if the string contains control characters.
func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// hasControlCharsExceptWhitespace returns true if the string contains
// control characters other than newline, carriage return, and tab.
func hasControlCharsExceptWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return true
		}
	}
	return false
}
