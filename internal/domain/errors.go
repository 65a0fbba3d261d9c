package domain

import (
	"errors"
	"fmt"
)

// Error represents a domain-specific error
type Error struct {
	Code    string
	Message string
	Key     string
	PostID  string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.PostID != "" {
		msg += fmt.Sprintf(" (post=%s)", e.PostID)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key=%s)", e.Key)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" - %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code so wrapped instances compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithKey returns a copy of the error carrying the storage key
func (e *Error) WithKey(key string) *Error {
	cp := *e
	cp.Key = key
	return &cp
}

// WithPost returns a copy of the error carrying the post id
func (e *Error) WithPost(postID string) *Error {
	cp := *e
	cp.PostID = postID
	return &cp
}

// Wrap returns a copy of the sentinel carrying the underlying cause
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// Common domain errors
var (
	ErrFetch = &Error{
		Code:    "FETCH_FAILED",
		Message: "Failed to fetch posts from the content API",
	}

	ErrResolution = &Error{
		Code:    "RESOLUTION_FAILED",
		Message: "Failed to resolve a signed URL",
	}

	ErrKeyNotFound = &Error{
		Code:    "KEY_NOT_FOUND",
		Message: "Storage key does not exist",
	}

	ErrDownload = &Error{
		Code:    "DOWNLOAD_FAILED",
		Message: "Failed to download asset",
	}

	ErrInvalidKey = &Error{
		Code:    "INVALID_KEY",
		Message: "URL does not reference a bucket image",
	}

	ErrRewrite = &Error{
		Code:    "REWRITE_FAILED",
		Message: "Content matches do not line up with replacements",
	}
)
