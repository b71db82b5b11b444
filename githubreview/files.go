/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package githubreview adapts a GitHub pull request to the review
// session: it lists the changed files, serves head-revision file
// content, and publishes findings as review comments anchored to the
// diff.
package githubreview

import (
	"context"
	"fmt"

	"github.com/bw00786/ai-code-review/review"
	"github.com/google/go-github/v84/github"
)

// PR identifies a pull request.
type PR struct {
	Owner  string
	Repo   string
	Number int
}

func (pr PR) String() string {
	return fmt.Sprintf("%s/%s#%d", pr.Owner, pr.Repo, pr.Number)
}

// ChangedFiles lists the pull request's changed files with their
// patches, following pagination to the end.
func ChangedFiles(ctx context.Context, gh *github.Client, pr PR) ([]review.ChangedFile, error) {
	var files []review.ChangedFile
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := gh.PullRequests.ListFiles(ctx, pr.Owner, pr.Repo, pr.Number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing files of %s: %w", pr, err)
		}
		for _, f := range page {
			files = append(files, review.ChangedFile{
				Filename:  f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Changes:   f.GetChanges(),
				Patch:     f.GetPatch(),
			})
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

// HeadSHA returns the pull request's head commit.
func HeadSHA(ctx context.Context, gh *github.Client, pr PR) (string, error) {
	pull, _, err := gh.PullRequests.Get(ctx, pr.Owner, pr.Repo, pr.Number)
	if err != nil {
		return "", fmt.Errorf("getting %s: %w", pr, err)
	}
	sha := pull.GetHead().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("%s has no head commit", pr)
	}
	return sha, nil
}
