/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package openaiagent implements the agent service contract on the
// OpenAI Assistants API: assistants for definitions, threads for
// conversations, runs for executions.
package openaiagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bw00786/ai-code-review/agent"
	"github.com/bw00786/ai-code-review/retry"
	"github.com/bw00786/ai-code-review/toolcall"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Service implements agent.Service against the OpenAI API. Transient
// API failures (rate limits, server errors) are retried with backoff
// before they surface to the session.
type Service struct {
	client openai.Client
	model  string
	retry  retry.Config
}

var _ agent.Service = (*Service)(nil)

// Option configures the service.
type Option func(*Service)

// WithRetryConfig overrides the transient-error retry configuration.
func WithRetryConfig(cfg retry.Config) Option {
	return func(s *Service) { s.retry = cfg }
}

// New creates a service talking to the OpenAI API with the given key.
// model is the default model for agent definitions that do not name
// their own.
func New(apiKey, model string, opts ...Option) *Service {
	s := &Service{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		retry:  retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDefinition registers an assistant carrying the review
// instructions and tool schema.
func (s *Service) CreateDefinition(ctx context.Context, spec agent.DefinitionSpec) (agent.Definition, error) {
	tools := make([]openai.AssistantToolUnionParam, 0, len(spec.Tools))
	for _, t := range spec.Tools {
		tools = append(tools, openai.AssistantToolUnionParam{
			OfFunction: &openai.FunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  shared.FunctionParameters(t.Parameters),
				},
			},
		})
	}

	model := spec.Model
	if model == "" {
		model = s.model
	}

	assistant, err := call(ctx, s, "create_assistant", func() (*openai.Assistant, error) {
		return s.client.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
			Model:        shared.ChatModel(model),
			Name:         openai.String(spec.Name),
			Instructions: openai.String(spec.Instructions),
			Tools:        tools,
		})
	})
	if err != nil {
		return agent.Definition{}, fmt.Errorf("creating assistant: %w", err)
	}
	return agent.Definition{ID: assistant.ID}, nil
}

func (s *Service) CreateConversation(ctx context.Context) (agent.Conversation, error) {
	thread, err := call(ctx, s, "create_thread", func() (*openai.Thread, error) {
		return s.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	})
	if err != nil {
		return agent.Conversation{}, fmt.Errorf("creating thread: %w", err)
	}
	return agent.Conversation{ID: thread.ID}, nil
}

func (s *Service) PostMessage(ctx context.Context, conv agent.Conversation, role, text string) error {
	messageRole := openai.BetaThreadMessageNewParamsRoleUser
	if role == agent.RoleAssistant {
		messageRole = openai.BetaThreadMessageNewParamsRoleAssistant
	}
	_, err := call(ctx, s, "post_message", func() (*openai.Message, error) {
		return s.client.Beta.Threads.Messages.New(ctx, conv.ID, openai.BetaThreadMessageNewParams{
			Role: messageRole,
			Content: openai.BetaThreadMessageNewParamsContentUnion{
				OfString: openai.String(text),
			},
		})
	})
	if err != nil {
		return fmt.Errorf("posting message to thread %s: %w", conv.ID, err)
	}
	return nil
}

func (s *Service) CreateRun(ctx context.Context, conv agent.Conversation, def agent.Definition) (agent.Run, error) {
	run, err := call(ctx, s, "create_run", func() (*openai.Run, error) {
		return s.client.Beta.Threads.Runs.New(ctx, conv.ID, openai.BetaThreadRunNewParams{
			AssistantID: def.ID,
		})
	})
	if err != nil {
		return agent.Run{}, fmt.Errorf("creating run on thread %s: %w", conv.ID, err)
	}
	return agent.Run{ID: run.ID}, nil
}

func (s *Service) PollRun(ctx context.Context, conv agent.Conversation, run agent.Run) (agent.RunState, error) {
	r, err := call(ctx, s, "poll_run", func() (*openai.Run, error) {
		return s.client.Beta.Threads.Runs.Get(ctx, conv.ID, run.ID)
	})
	if err != nil {
		return agent.RunState{}, fmt.Errorf("polling run %s: %w", run.ID, err)
	}

	state := agent.RunState{
		Status:    mapStatus(r.Status),
		LastError: r.LastError.Message,
	}
	if state.Status == agent.StatusRequiresAction {
		state.ToolCalls = pendingCalls(ctx, r)
	}
	return state, nil
}

func (s *Service) SubmitToolOutputs(ctx context.Context, conv agent.Conversation, run agent.Run, outputs []agent.ToolOutput) error {
	body := make([]openai.BetaThreadRunSubmitToolOutputsParamsToolOutput, 0, len(outputs))
	for _, out := range outputs {
		body = append(body, openai.BetaThreadRunSubmitToolOutputsParamsToolOutput{
			ToolCallID: openai.String(out.CallID),
			Output:     openai.String(out.Output),
		})
	}
	_, err := call(ctx, s, "submit_tool_outputs", func() (*openai.Run, error) {
		return s.client.Beta.Threads.Runs.SubmitToolOutputs(ctx, conv.ID, run.ID, openai.BetaThreadRunSubmitToolOutputsParams{
			ToolOutputs: body,
		})
	})
	if err != nil {
		return fmt.Errorf("submitting %d tool outputs to run %s: %w", len(outputs), run.ID, err)
	}
	return nil
}

// ListMessages returns the thread's messages in the service's native
// order, newest first.
func (s *Service) ListMessages(ctx context.Context, conv agent.Conversation) ([]agent.Message, error) {
	page, err := s.client.Beta.Threads.Messages.List(ctx, conv.ID, openai.BetaThreadMessageListParams{})
	if err != nil {
		return nil, fmt.Errorf("listing messages on thread %s: %w", conv.ID, err)
	}

	messages := make([]agent.Message, 0, len(page.Data))
	for _, m := range page.Data {
		messages = append(messages, agent.Message{
			Role: string(m.Role),
			Text: firstText(m),
		})
	}
	return messages, nil
}

func (s *Service) DeleteConversation(ctx context.Context, conv agent.Conversation) error {
	if _, err := s.client.Beta.Threads.Delete(ctx, conv.ID); err != nil {
		return fmt.Errorf("deleting thread %s: %w", conv.ID, err)
	}
	return nil
}

// call wraps one API operation in the service's retry policy.
func call[T any](ctx context.Context, s *Service, operation string, fn func() (T, error)) (T, error) {
	return retry.Do(ctx, s.retry, operation, isRetryable, fn)
}

// isRetryable classifies rate limits and server errors as transient.
func isRetryable(err error) bool {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == http.StatusTooManyRequests || apierr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func mapStatus(status openai.RunStatus) agent.Status {
	switch status {
	case openai.RunStatusRequiresAction:
		return agent.StatusRequiresAction
	case openai.RunStatusCompleted:
		return agent.StatusCompleted
	case openai.RunStatusFailed:
		return agent.StatusFailed
	case openai.RunStatusCancelling, openai.RunStatusCancelled:
		return agent.StatusCancelled
	case openai.RunStatusExpired, openai.RunStatusIncomplete:
		return agent.StatusExpired
	default:
		// queued, in_progress: still working.
		return agent.StatusInProgress
	}
}

// pendingCalls extracts the run's pending tool-call batch. Arguments
// that fail to decode yield an empty record so the dispatcher can
// report the problem back as that call's result.
func pendingCalls(ctx context.Context, r *openai.Run) []toolcall.Call {
	raw := r.RequiredAction.SubmitToolOutputs.ToolCalls
	calls := make([]toolcall.Call, 0, len(raw))
	for _, tc := range raw {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				clog.FromContext(ctx).With("tool", tc.Function.Name).
					With("call_id", tc.ID).
					With("error", err).
					Warn("Undecodable tool arguments")
				args = map[string]any{}
			}
		}
		calls = append(calls, toolcall.Call{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return calls
}

func firstText(m openai.Message) string {
	for _, content := range m.Content {
		if content.Type == "text" {
			return content.Text.Value
		}
	}
	return ""
}
