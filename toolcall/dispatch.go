/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"fmt"

	"github.com/bw00786/ai-code-review/filecache"
	"github.com/chainguard-dev/clog"
)

// PublishedResult is the tool output the agent receives after a
// comment lands.
const PublishedResult = "The note has been published."

// CommentSink is the destination for review findings.
type CommentSink interface {
	PostComment(ctx context.Context, description, file string, line int) error
}

// Dispatcher executes tool calls against the session's file cache and
// comment sink. Every failure inside a handler is converted to an
// error-describing output for that single call, so a batch always
// yields one result per call no matter how many of them go wrong.
type Dispatcher struct {
	cache *filecache.Cache
	sink  CommentSink
}

// NewDispatcher wires a dispatcher to the session's cache and sink.
func NewDispatcher(cache *filecache.Cache, sink CommentSink) *Dispatcher {
	return &Dispatcher{cache: cache, sink: sink}
}

// Dispatch executes one call and returns its output text. done
// reports that the call was the terminal mark_done signal; a done
// call produces no output and the caller must stop the exchange
// without submitting anything for it.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (output string, done bool) {
	log := clog.FromContext(ctx).With("tool", call.Name).With("call_id", call.ID)

	req, err := Parse(call)
	if err != nil {
		log.With("error", err).Warn("Rejecting malformed tool arguments")
		return fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err), false
	}

	switch req := req.(type) {
	case FetchContext:
		text, err := d.cache.Fetch(ctx, req.Path, req.StartLine, req.EndLine)
		if err != nil {
			log.With("path", req.Path).With("error", err).Warn("Context fetch failed")
			return fmt.Sprintf("Could not read %s: %v", req.Path, err), false
		}
		return text, false

	case PostComment:
		if err := d.sink.PostComment(ctx, req.Description, req.File, req.Line); err != nil {
			log.With("file", req.File).With("line", req.Line).With("error", err).Warn("Comment publication failed")
			return fmt.Sprintf("Could not publish the note: %v", err), false
		}
		log.With("file", req.File).With("line", req.Line).Info("Review comment published")
		return PublishedResult, false

	case MarkDone:
		return "", true

	case Unknown:
		log.Warn("Unknown tool requested")
		return fmt.Sprintf("Unknown tool requested: %s", req.Name), false
	}

	// Unreachable: Request is a closed set.
	return "", false
}
