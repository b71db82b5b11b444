/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubreview

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bw00786/ai-code-review/filecache"
	"github.com/google/go-github/v84/github"
)

// Source serves file content from the pull request's head revision.
// It implements filecache.ContentSource, so each file is read at most
// once per review session.
type Source struct {
	gh  *github.Client
	pr  PR
	ref string
}

var _ filecache.ContentSource = (*Source)(nil)

// NewSource creates a content source pinned to ref, normally the pull
// request's head commit so fetched context matches the reviewed diff.
func NewSource(gh *github.Client, pr PR, ref string) *Source {
	return &Source{gh: gh, pr: pr, ref: ref}
}

func (s *Source) GetContent(ctx context.Context, path string) (string, error) {
	content, _, resp, err := s.gh.Repositories.GetContents(ctx, s.pr.Owner, s.pr.Repo, path, &github.RepositoryContentGetOptions{
		Ref: s.ref,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%s not found at %s", path, s.ref)
		}
		return "", fmt.Errorf("fetching %s at %s: %w", path, s.ref, err)
	}
	// content is nil for directories.
	if content == nil {
		return "", fmt.Errorf("%s is not a file", path)
	}

	text, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return text, nil
}
