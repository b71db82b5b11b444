/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package review orchestrates an automated pull-request review against
// a conversational agent service: one agent definition per review, a
// conversation per attempt, tool calls dispatched as the run demands
// them, and the conversation transcript as the result.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bw00786/ai-code-review/agent"
	"github.com/bw00786/ai-code-review/filecache"
	"github.com/bw00786/ai-code-review/metrics"
	"github.com/bw00786/ai-code-review/retry"
	"github.com/bw00786/ai-code-review/sessiontrace"
	"github.com/bw00786/ai-code-review/toolcall"
	"github.com/chainguard-dev/clog"
)

const (
	defaultModel        = "gpt-4o"
	defaultPollInterval = 1 * time.Second
	defaultMaxPolls     = 600
	defaultMaxAttempts  = 3
	defaultBackoffBase  = 2 * time.Second
)

// Reviewer runs review sessions. A single Reviewer is reusable across
// reviews; each Review call gets its own agent definition, file cache,
// and conversations.
type Reviewer struct {
	service agent.Service
	source  filecache.ContentSource
	sink    toolcall.CommentSink

	model        string
	instructions string
	pollInterval time.Duration
	maxPolls     int
	maxAttempts  int
	backoffBase  time.Duration
	metrics      *metrics.Session
	sleep        func(context.Context, time.Duration) error
}

// Option configures a Reviewer.
type Option func(*Reviewer) error

// WithModel sets the model requested for the agent definition.
func WithModel(model string) Option {
	return func(r *Reviewer) error {
		if model == "" {
			return errors.New("model cannot be empty")
		}
		r.model = model
		return nil
	}
}

// WithInstructions overrides the standing review instructions.
func WithInstructions(instructions string) Option {
	return func(r *Reviewer) error {
		if instructions == "" {
			return errors.New("instructions cannot be empty")
		}
		r.instructions = instructions
		return nil
	}
}

// WithPollInterval sets the delay between run status polls.
func WithPollInterval(interval time.Duration) Option {
	return func(r *Reviewer) error {
		if interval <= 0 {
			return errors.New("poll interval must be positive")
		}
		r.pollInterval = interval
		return nil
	}
}

// WithMaxPolls bounds how many polls a single run may consume before
// the attempt is abandoned as stalled.
func WithMaxPolls(maxPolls int) Option {
	return func(r *Reviewer) error {
		if maxPolls <= 0 {
			return errors.New("max polls must be positive")
		}
		r.maxPolls = maxPolls
		return nil
	}
}

// New creates a Reviewer over the given agent service, file content
// source, and comment sink.
func New(service agent.Service, source filecache.ContentSource, sink toolcall.CommentSink, opts ...Option) (*Reviewer, error) {
	r := &Reviewer{
		service:      service,
		source:       source,
		sink:         sink,
		model:        defaultModel,
		instructions: DefaultInstructions,
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
		maxAttempts:  defaultMaxAttempts,
		backoffBase:  defaultBackoffBase,
		metrics:      metrics.NewSession("ai-code-review"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Review runs one review session over the changed files and returns
// the conversation transcript in chronological order. The agent
// definition is created once; the conversation, run, and polling are
// retried as a unit, with the failed attempt's conversation deleted
// before the next one starts. The file cache spans the whole session,
// so context fetched during a failed attempt stays warm for the next.
func (r *Reviewer) Review(ctx context.Context, files []ChangedFile) ([]agent.Message, error) {
	log := clog.FromContext(ctx).With("model", r.model).With("files", len(files))

	def, err := r.service.CreateDefinition(ctx, agent.DefinitionSpec{
		Name:         "pull-request-reviewer",
		Instructions: r.instructions,
		Model:        r.model,
		Tools:        toolcall.Definitions(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent definition: %w", err)
	}
	log.With("definition_id", def.ID).Info("Agent definition created")

	request, err := buildRequest(files)
	if err != nil {
		return nil, fmt.Errorf("building review request: %w", err)
	}

	cache := filecache.New(r.source)
	dispatcher := toolcall.NewDispatcher(cache, r.countingSink())

	attempt := 0
	return retry.Do(ctx, retry.Config{
		MaxRetries:  r.maxAttempts - 1,
		BaseBackoff: r.backoffBase,
		MaxBackoff:  r.backoffBase << r.maxAttempts,
		Sleep:       r.sleep,
	}, "review_session", retry.Always, func() ([]agent.Message, error) {
		attempt++
		return r.attempt(ctx, def, request, dispatcher, attempt)
	})
}

// attempt runs one conversation to completion. On failure the
// conversation is deleted so the next attempt starts clean.
func (r *Reviewer) attempt(ctx context.Context, def agent.Definition, request string, dispatcher *toolcall.Dispatcher, attempt int) (msgs []agent.Message, err error) {
	ctx, span := sessiontrace.Start(ctx, attempt, r.model)
	defer func() { span.End(err) }()

	r.metrics.RecordAttempt(ctx, r.model)
	log := clog.FromContext(ctx).With("attempt", attempt)

	conv, err := r.service.CreateConversation(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	log = log.With("conversation_id", conv.ID)
	defer func() {
		if err == nil {
			return
		}
		if derr := r.service.DeleteConversation(ctx, conv); derr != nil {
			log.With("error", derr).Warn("Failed to delete conversation of failed attempt")
		} else {
			log.Info("Deleted conversation of failed attempt")
		}
	}()

	if err := r.service.PostMessage(ctx, conv, agent.RoleUser, request); err != nil {
		return nil, fmt.Errorf("posting review request: %w", err)
	}

	run, err := r.service.CreateRun(ctx, conv, def)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	log.With("run_id", run.ID).Info("Run started")

	p := &poller{
		service:    r.service,
		dispatcher: dispatcher,
		interval:   r.pollInterval,
		maxPolls:   r.maxPolls,
		metrics:    r.metrics,
		model:      r.model,
		span:       span,
		sleep:      r.sleepFunc(),
	}
	outcome, err := p.wait(ctx, conv, run)
	if err != nil {
		return nil, err
	}
	log.With("outcome", outcome).Info("Attempt succeeded")

	return Transcript(ctx, r.service, conv)
}

// countingSink wraps the comment sink so published comments feed the
// session counters.
func (r *Reviewer) countingSink() toolcall.CommentSink {
	return &countingSink{sink: r.sink, metrics: r.metrics, model: r.model}
}

type countingSink struct {
	sink    toolcall.CommentSink
	metrics *metrics.Session
	model   string
}

func (s *countingSink) PostComment(ctx context.Context, description, file string, line int) error {
	if err := s.sink.PostComment(ctx, description, file, line); err != nil {
		return err
	}
	s.metrics.RecordComment(ctx, s.model)
	return nil
}

func (r *Reviewer) sleepFunc() func(context.Context, time.Duration) error {
	if r.sleep != nil {
		return r.sleep
	}
	return func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}
}
