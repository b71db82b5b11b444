/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package review

import (
	"context"
	"fmt"
	"slices"

	"github.com/bw00786/ai-code-review/agent"
	"github.com/chainguard-dev/clog"
)

// Transcript returns the conversation's messages in chronological
// order and logs each one. The service lists newest first, so the
// order is reversed before reporting.
func Transcript(ctx context.Context, service agent.Service, conv agent.Conversation) ([]agent.Message, error) {
	messages, err := service.ListMessages(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("listing transcript of %s: %w", conv.ID, err)
	}
	slices.Reverse(messages)

	log := clog.FromContext(ctx).With("conversation_id", conv.ID)
	for i, m := range messages {
		log.With("index", i).With("role", m.Role).Info(m.Text)
	}
	return messages, nil
}
