/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bw00786/ai-code-review/agent"
	"github.com/bw00786/ai-code-review/metrics"
	"github.com/bw00786/ai-code-review/sessiontrace"
	"github.com/bw00786/ai-code-review/toolcall"
	"github.com/chainguard-dev/clog"
)

// ErrRunStalled reports that a run stayed non-terminal for the whole
// poll budget.
var ErrRunStalled = errors.New("run did not reach a terminal state within the poll budget")

// Outcome is how a polled run ended successfully.
type Outcome int

const (
	// RunCompleted means the service reported the run completed on its
	// own.
	RunCompleted Outcome = iota
	// DoneSignalled means the agent called mark_done; the run is
	// abandoned mid-flight with the pending batch unanswered.
	DoneSignalled
)

// poller drives one run to its end: it polls run state on a fixed
// interval, dispatches each requires-action batch, and submits the
// batch's outputs back.
type poller struct {
	service    agent.Service
	dispatcher *toolcall.Dispatcher
	interval   time.Duration
	maxPolls   int
	metrics    *metrics.Session
	model      string
	span       *sessiontrace.Attempt
	sleep      func(context.Context, time.Duration) error
}

// wait blocks until the run completes, the agent signals done, the run
// ends badly, or the poll budget runs out.
func (p *poller) wait(ctx context.Context, conv agent.Conversation, run agent.Run) (Outcome, error) {
	log := clog.FromContext(ctx).With("run_id", run.ID)

	for poll := 0; poll < p.maxPolls; poll++ {
		p.metrics.RecordPoll(ctx, p.model)

		state, err := p.service.PollRun(ctx, conv, run)
		if err != nil {
			return 0, err
		}

		switch state.Status {
		case agent.StatusCompleted:
			log.With("polls", poll+1).Info("Run completed")
			return RunCompleted, nil

		case agent.StatusFailed, agent.StatusCancelled, agent.StatusExpired:
			return 0, fmt.Errorf("run %s ended %s: %s", run.ID, state.Status, state.LastError)

		case agent.StatusRequiresAction:
			outputs, done := p.dispatchBatch(ctx, state.ToolCalls)
			if done {
				log.With("polls", poll+1).Info("Agent signalled done")
				return DoneSignalled, nil
			}
			if err := p.service.SubmitToolOutputs(ctx, conv, run, outputs); err != nil {
				return 0, err
			}
		}

		if err := p.sleep(ctx, p.interval); err != nil {
			return 0, err
		}
	}

	return 0, fmt.Errorf("%w: run %s after %d polls", ErrRunStalled, run.ID, p.maxPolls)
}

// dispatchBatch executes a requires-action batch in order. It returns
// one output per dispatched call, or done=true the moment a call turns
// out to be the terminal signal; a done batch submits nothing.
func (p *poller) dispatchBatch(ctx context.Context, calls []toolcall.Call) ([]agent.ToolOutput, bool) {
	outputs := make([]agent.ToolOutput, 0, len(calls))
	for _, call := range calls {
		p.metrics.RecordToolCall(ctx, p.model, call.Name)

		span := p.span.StartToolCall(call.ID, call.Name)
		output, done := p.dispatcher.Dispatch(ctx, call)
		span.End(done)

		if done {
			return nil, true
		}
		outputs = append(outputs, agent.ToolOutput{CallID: call.ID, Output: output})
	}
	return outputs, false
}
