/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package filecache memoizes file bodies for one review session and
// slices bounded line windows out of them for the agent's context
// requests.
package filecache

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrContentUnavailable reports that the underlying content source
// could not produce the file body.
var ErrContentUnavailable = errors.New("file content unavailable")

// Margin is the number of extra lines included on each side of a
// requested range.
const Margin = 20

// ContentSource is the authoritative source of file bodies.
type ContentSource interface {
	GetContent(ctx context.Context, path string) (string, error)
}

// Cache memoizes raw file text per path. It is a session-scoped value
// owned by a single review; entries are never invalidated or evicted
// within that lifetime. Not safe for concurrent use; the session is
// single-threaded.
type Cache struct {
	source ContentSource
	files  map[string]string
}

// New creates an empty cache backed by source.
func New(source ContentSource) *Cache {
	return &Cache{
		source: source,
		files:  make(map[string]string),
	}
}

// Fetch returns the file's content around the requested range,
// formatted for the agent. startLine and endLine are 1-based line
// numbers; the window is widened by Margin lines on each side and
// clamped to the file. The first fetch for a path reads through to
// the content source; later fetches reuse the stored text.
func (c *Cache) Fetch(ctx context.Context, path string, startLine, endLine int) (string, error) {
	text, ok := c.files[path]
	if !ok {
		var err error
		text, err = c.source.GetContent(ctx, path)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrContentUnavailable, path, err)
		}
		c.files[path] = text
	}

	lines := strings.Split(text, "\n")
	start := max(startLine-Margin, 1)
	end := min(endLine+Margin, len(lines))
	if start > len(lines) || end < start {
		return fmt.Sprintf("%s\n'''\n'''\n", path), nil
	}

	slice := strings.Join(lines[start-1:end], "\n")
	return fmt.Sprintf("%s\n'''\n%s\n'''\n", path, slice), nil
}
