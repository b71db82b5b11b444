/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package sessiontrace records OpenTelemetry spans for review
// attempts and the tool calls dispatched within them.
package sessiontrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "ai-code-review/session"

func tracer() oteltrace.Tracer {
	return otel.Tracer(tracerName, oteltrace.WithInstrumentationVersion("1.0.0"))
}

// Attempt is the span covering one review attempt, from conversation
// creation to transcript retrieval.
type Attempt struct {
	ctx  context.Context
	span oteltrace.Span
}

// Start opens an attempt span. The returned context carries it, so
// tool-call spans nest underneath.
func Start(ctx context.Context, attempt int, model string) (context.Context, *Attempt) {
	ctx, span := tracer().Start(ctx, "review.attempt", oteltrace.WithAttributes(
		attribute.Int("attempt", attempt),
		attribute.String("model", model),
	))
	return ctx, &Attempt{ctx: ctx, span: span}
}

// End closes the attempt span with the attempt's outcome.
func (a *Attempt) End(err error) {
	if a == nil {
		return
	}
	if err != nil {
		a.span.RecordError(err)
		a.span.SetStatus(codes.Error, err.Error())
	} else {
		a.span.SetStatus(codes.Ok, "")
	}
	a.span.End()
}

// ToolCall is the span covering one dispatched tool call.
type ToolCall struct {
	span oteltrace.Span
}

// StartToolCall opens a tool-call span under the attempt.
func (a *Attempt) StartToolCall(id, name string) *ToolCall {
	if a == nil {
		return nil
	}
	_, span := tracer().Start(a.ctx, "review.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))
	return &ToolCall{span: span}
}

// End closes the tool-call span, recording whether the call ended the
// session.
func (t *ToolCall) End(done bool) {
	if t == nil {
		return
	}
	t.span.SetAttributes(attribute.Bool("tool.terminal", done))
	t.span.SetStatus(codes.Ok, "")
	t.span.End()
}
