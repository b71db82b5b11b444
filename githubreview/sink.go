/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubreview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bw00786/ai-code-review/review"
	"github.com/bw00786/ai-code-review/toolcall"
	"github.com/google/go-github/v84/github"
)

// Sink publishes findings as pull request review comments pinned to
// the head commit. Findings on lines outside the reviewed diff are
// rejected, since the comment API cannot anchor them; the rejection
// flows back to the agent as the tool call's result.
type Sink struct {
	gh       *github.Client
	pr       PR
	commitID string
	anchors  map[string]map[int]bool
}

var _ toolcall.CommentSink = (*Sink)(nil)

// NewSink creates a sink for the given change set. commitID is the
// head commit the comments attach to. Files without a parseable patch
// (binary files, pure renames) accept no comments.
func NewSink(gh *github.Client, pr PR, commitID string, files []review.ChangedFile) *Sink {
	anchors := make(map[string]map[int]bool, len(files))
	for _, f := range files {
		if f.Patch == "" {
			continue
		}
		lines, err := commentableLines(f.Filename, f.Patch)
		if err != nil {
			slog.Warn("Unparseable patch, comments on this file will be rejected", "file", f.Filename, "error", err)
			continue
		}
		anchors[f.Filename] = lines
	}
	return &Sink{gh: gh, pr: pr, commitID: commitID, anchors: anchors}
}

func (s *Sink) PostComment(ctx context.Context, description, file string, line int) error {
	if !s.anchors[file][line] {
		return fmt.Errorf("line %d of %s is not part of the reviewed diff", line, file)
	}

	_, _, err := s.gh.PullRequests.CreateComment(ctx, s.pr.Owner, s.pr.Repo, s.pr.Number, &github.PullRequestComment{
		Body:     github.Ptr(description),
		CommitID: github.Ptr(s.commitID),
		Path:     github.Ptr(file),
		Line:     github.Ptr(line),
		Side:     github.Ptr("RIGHT"),
	})
	if err != nil {
		return fmt.Errorf("creating review comment on %s: %w", s.pr, err)
	}
	return nil
}
