/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides OpenTelemetry counters for review
// sessions. Counter creation degrades gracefully: if an instrument
// cannot be built, recording becomes a no-op instead of failing the
// review.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Session counts the observable work of review sessions: attempts,
// poll cycles, dispatched tool calls, and published comments, each
// dimensioned by model.
type Session struct {
	attempts  metric.Int64Counter
	polls     metric.Int64Counter
	toolCalls metric.Int64Counter
	comments  metric.Int64Counter
}

// NewSession creates the session counters under the given meter name.
func NewSession(meterName string) *Session {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	return &Session{
		attempts:  counter(meter, meterName, "review.session.attempts", "The number of review session attempts started", "{attempts}"),
		polls:     counter(meter, meterName, "review.run.polls", "The number of run status polls issued", "{polls}"),
		toolCalls: counter(meter, meterName, "review.tool.calls", "The number of tool calls dispatched", "{calls}"),
		comments:  counter(meter, meterName, "review.comments.published", "The number of review comments published", "{comments}"),
	}
}

func counter(meter metric.Meter, meterName, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name,
		metric.WithDescription(description),
		metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Failed to create counter, recording disabled", "counter", name, "error", err, "meter", meterName)
		return noop.Int64Counter{}
	}
	return c
}

// RecordAttempt counts one session attempt.
func (m *Session) RecordAttempt(ctx context.Context, model string) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}

// RecordPoll counts one run status poll.
func (m *Session) RecordPoll(ctx context.Context, model string) {
	if m == nil {
		return
	}
	m.polls.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}

// RecordToolCall counts one dispatched tool call.
func (m *Session) RecordToolCall(ctx context.Context, model, tool string) {
	if m == nil {
		return
	}
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("tool", tool),
	))
}

// RecordComment counts one published review comment.
func (m *Session) RecordComment(ctx context.Context, model string) {
	if m == nil {
		return
	}
	m.comments.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}
