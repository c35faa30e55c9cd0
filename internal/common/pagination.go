package common

import (
	"net/http"
	"strings"
)

const (
	// DefaultPageSize is used when the client omits the limit parameter.
	DefaultPageSize = 20
	// MaxPageSize caps the page size regardless of what the client asks for.
	MaxPageSize = 100
)

// Cursor describes keyset pagination input: resume after lastKey, return at
// most Limit rows.
type Cursor struct {
	LastKey string
	Limit   int
}

// PageMeta is the pagination envelope attached to list responses.
type PageMeta struct {
	LastKey string `json:"lastKey,omitempty"`
	HasMore bool   `json:"hasMore"`
	Limit   int    `json:"limit"`
}

// ParseCursor extracts lastKey/limit query parameters, clamping the limit
// into [1, MaxPageSize].
func ParseCursor(r *http.Request) Cursor {
	c := Cursor{
		LastKey: strings.TrimSpace(r.URL.Query().Get("lastKey")),
		Limit:   DefaultPageSize,
	}
	if v := AtoiDefault(r.URL.Query().Get("limit"), 0); v > 0 {
		c.Limit = v
	}
	if c.Limit > MaxPageSize {
		c.Limit = MaxPageSize
	}
	return c
}
