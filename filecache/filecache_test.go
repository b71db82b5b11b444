/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package filecache_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bw00786/ai-code-review/filecache"
)

// countingSource serves fixed file bodies and counts fetches per path.
type countingSource struct {
	files   map[string]string
	fetches map[string]int
}

func newCountingSource(files map[string]string) *countingSource {
	return &countingSource{files: files, fetches: make(map[string]int)}
}

func (s *countingSource) GetContent(_ context.Context, path string) (string, error) {
	s.fetches[path]++
	body, ok := s.files[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return body, nil
}

func numberedLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(lines, "\n")
}

func TestFetchMemoizesPerPath(t *testing.T) {
	t.Parallel()
	src := newCountingSource(map[string]string{"a.go": numberedLines(100)})
	cache := filecache.New(src)

	first, err := cache.Fetch(context.Background(), "a.go", 10, 20)
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	second, err := cache.Fetch(context.Background(), "a.go", 15, 25)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}

	if got := src.fetches["a.go"]; got != 1 {
		t.Fatalf("expected exactly 1 underlying fetch, got %d", got)
	}
	// Both windows are slices of the same stored text.
	if !strings.Contains(first, "line 10") || !strings.Contains(second, "line 15") {
		t.Fatal("windows should cover the requested lines")
	}
}

func TestFetchClampsWindow(t *testing.T) {
	t.Parallel()
	src := newCountingSource(map[string]string{"short.go": numberedLines(12)})
	cache := filecache.New(src)

	got, err := cache.Fetch(context.Background(), "short.go", 5, 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// Margin 20 around [5,10] on a 12-line file clamps to the whole file.
	want := "short.go\n'''\n" + numberedLines(12) + "\n'''\n"
	if got != want {
		t.Fatalf("Fetch = %q, want %q", got, want)
	}
}

func TestFetchWindowInsideLargeFile(t *testing.T) {
	t.Parallel()
	src := newCountingSource(map[string]string{"big.go": numberedLines(200)})
	cache := filecache.New(src)

	got, err := cache.Fetch(context.Background(), "big.go", 100, 100)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !strings.Contains(got, "line 80\n") || !strings.Contains(got, "line 120\n'''") {
		t.Fatalf("window should span lines 80..120, got:\n%s", got)
	}
	if strings.Contains(got, "line 79\n") || strings.Contains(got, "line 121") {
		t.Fatalf("window should not extend past the margin, got:\n%s", got)
	}
}

func TestFetchRangePastEndOfFile(t *testing.T) {
	t.Parallel()
	src := newCountingSource(map[string]string{"tiny.go": numberedLines(3)})
	cache := filecache.New(src)

	got, err := cache.Fetch(context.Background(), "tiny.go", 500, 510)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "tiny.go\n'''\n'''\n" {
		t.Fatalf("expected an empty window, got %q", got)
	}
}

func TestFetchFailurePropagates(t *testing.T) {
	t.Parallel()
	cache := filecache.New(newCountingSource(nil))

	_, err := cache.Fetch(context.Background(), "missing.go", 1, 5)
	if !errors.Is(err, filecache.ErrContentUnavailable) {
		t.Fatalf("expected ErrContentUnavailable, got %v", err)
	}
}

func TestFetchFailureIsNotCached(t *testing.T) {
	t.Parallel()
	src := newCountingSource(nil)
	cache := filecache.New(src)

	_, _ = cache.Fetch(context.Background(), "flaky.go", 1, 5)
	src.files = map[string]string{"flaky.go": numberedLines(5)}

	if _, err := cache.Fetch(context.Background(), "flaky.go", 1, 5); err != nil {
		t.Fatalf("expected retryable fetch to succeed, got %v", err)
	}
	if got := src.fetches["flaky.go"]; got != 2 {
		t.Fatalf("expected 2 fetches (failure then success), got %d", got)
	}
}
