/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package agent defines the conversational agent service contract the
// review session is written against. The production implementation
// lives in openaiagent; tests supply fakes.
package agent

import (
	"context"

	"github.com/bw00786/ai-code-review/toolcall"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Status is the session-relevant view of a run's lifecycle. The
// service-side vocabulary is wider; anything that is not
// requires-action or terminal counts as still working.
type Status string

const (
	StatusInProgress     Status = "in_progress"
	StatusRequiresAction Status = "requires_action"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
)

// Terminal reports whether the status ends the run on the service
// side.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// DefinitionSpec configures the agent definition for a review:
// instructions, model, and the tool schema the agent must honor.
type DefinitionSpec struct {
	Name         string
	Instructions string
	Model        string
	Tools        []toolcall.Definition
}

// Definition is a handle to a created agent definition.
type Definition struct {
	ID string
}

// Conversation is a handle to a service-side conversation (thread).
type Conversation struct {
	ID string
}

// Run is a handle to one execution of the agent against a
// conversation.
type Run struct {
	ID string
}

// RunState is a poll observation: the run's status, the pending tool
// calls when the status is requires-action, and the service's error
// description when the run ended badly.
type RunState struct {
	Status    Status
	ToolCalls []toolcall.Call
	LastError string
}

// ToolOutput is the result for one tool call, submitted back as part
// of a batch.
type ToolOutput struct {
	CallID string
	Output string
}

// Message is one transcript entry.
type Message struct {
	Role string
	Text string
}

// Service is the conversational agent service consumed by a review
// session.
type Service interface {
	// CreateDefinition registers the agent definition (instructions,
	// model, tool schema) and returns its handle.
	CreateDefinition(ctx context.Context, spec DefinitionSpec) (Definition, error)
	// CreateConversation opens a fresh conversation.
	CreateConversation(ctx context.Context) (Conversation, error)
	// PostMessage appends a message to the conversation.
	PostMessage(ctx context.Context, conv Conversation, role, text string) error
	// CreateRun starts executing the agent against the conversation.
	CreateRun(ctx context.Context, conv Conversation, def Definition) (Run, error)
	// PollRun reports the run's current state.
	PollRun(ctx context.Context, conv Conversation, run Run) (RunState, error)
	// SubmitToolOutputs returns one batch of tool results to the run.
	SubmitToolOutputs(ctx context.Context, conv Conversation, run Run, outputs []ToolOutput) error
	// ListMessages returns the conversation's messages, newest first.
	ListMessages(ctx context.Context, conv Conversation) ([]Message, error)
	// DeleteConversation destroys the conversation and its history.
	DeleteConversation(ctx context.Context, conv Conversation) error
}
