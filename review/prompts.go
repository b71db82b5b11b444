/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package review

import "github.com/bw00786/ai-code-review/prompt"

// DefaultInstructions is the standing brief given to the review agent
// definition. It is created once per review and reused across attempts.
const DefaultInstructions = `You are an experienced software engineer performing a code review on a pull request.

You are given the list of changed files with their patches. For each file, decide
whether you need more context before judging a change. Use the fetch_context tool
to read the surrounding source of any changed region. When you find a concrete
problem (a bug, a security issue, a correctness risk, or a significant
maintainability concern), publish it with the post_comment tool, anchored to the
changed line it concerns. Do not comment on style preferences or restate the diff.

When you have reviewed every file and published every finding, call mark_done
exactly once. Finish with a short summary message of the review.`

// requestTemplate shapes the opening message of a review conversation.
var requestTemplate = prompt.MustNew(`Please review the following pull request changes.

Changed files:
{{changed_files}}

Fetch additional context where the patch alone is not enough to judge a change.`)

// buildRequest renders the opening message for the given change set.
func buildRequest(files []ChangedFile) (string, error) {
	p, err := requestTemplate.BindJSON("changed_files", files)
	if err != nil {
		return "", err
	}
	return p.Build()
}
