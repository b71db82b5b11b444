/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubreview

import (
	"fmt"

	"github.com/waigani/diffparser"
)

// commentableLines parses one file's patch and returns the head-side
// line numbers a review comment can anchor to: every line that appears
// in a hunk's new range, added or unchanged.
func commentableLines(filename, patch string) (map[int]bool, error) {
	// Patches from the pull-request file listing come without the
	// per-file header the parser keys on.
	diff, err := diffparser.Parse(fmt.Sprintf("--- a/%s\n+++ b/%s\n%s\n", filename, filename, patch))
	if err != nil {
		return nil, fmt.Errorf("parsing patch of %s: %w", filename, err)
	}

	lines := map[int]bool{}
	for _, file := range diff.Files {
		for _, hunk := range file.Hunks {
			for _, line := range hunk.NewRange.Lines {
				lines[line.Number] = true
			}
		}
	}
	return lines, nil
}
