/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bw00786/ai-code-review/agent"
	"github.com/bw00786/ai-code-review/toolcall"
	"github.com/google/go-cmp/cmp"
)

// fakeService scripts run-state observations. Each PollRun pops the
// next scripted state; an exhausted script reports completed, unless
// loop keeps the last state repeating.
type fakeService struct {
	script []agent.RunState
	loop   bool

	definitions   int
	spec          agent.DefinitionSpec
	conversations int
	deleted       []string
	userMessages  []string
	runs          int
	polls         int
	submissions   [][]agent.ToolOutput
	transcript    []agent.Message
}

func (f *fakeService) CreateDefinition(_ context.Context, spec agent.DefinitionSpec) (agent.Definition, error) {
	f.definitions++
	f.spec = spec
	return agent.Definition{ID: fmt.Sprintf("def-%d", f.definitions)}, nil
}

func (f *fakeService) CreateConversation(context.Context) (agent.Conversation, error) {
	f.conversations++
	return agent.Conversation{ID: fmt.Sprintf("conv-%d", f.conversations)}, nil
}

func (f *fakeService) PostMessage(_ context.Context, _ agent.Conversation, role, text string) error {
	if role == agent.RoleUser {
		f.userMessages = append(f.userMessages, text)
	}
	return nil
}

func (f *fakeService) CreateRun(context.Context, agent.Conversation, agent.Definition) (agent.Run, error) {
	f.runs++
	return agent.Run{ID: fmt.Sprintf("run-%d", f.runs)}, nil
}

func (f *fakeService) PollRun(context.Context, agent.Conversation, agent.Run) (agent.RunState, error) {
	f.polls++
	if len(f.script) == 0 {
		return agent.RunState{Status: agent.StatusCompleted}, nil
	}
	state := f.script[0]
	if !f.loop || len(f.script) > 1 {
		f.script = f.script[1:]
	}
	return state, nil
}

func (f *fakeService) SubmitToolOutputs(_ context.Context, _ agent.Conversation, _ agent.Run, outputs []agent.ToolOutput) error {
	f.submissions = append(f.submissions, outputs)
	return nil
}

func (f *fakeService) ListMessages(context.Context, agent.Conversation) ([]agent.Message, error) {
	return f.transcript, nil
}

func (f *fakeService) DeleteConversation(_ context.Context, conv agent.Conversation) error {
	f.deleted = append(f.deleted, conv.ID)
	return nil
}

type fakeSource struct {
	files map[string]string
}

func (s *fakeSource) GetContent(_ context.Context, path string) (string, error) {
	content, ok := s.files[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return content, nil
}

type posted struct {
	Description string
	File        string
	Line        int
}

type fakeSink struct {
	comments []posted
	err      error
}

func (s *fakeSink) PostComment(_ context.Context, description, file string, line int) error {
	if s.err != nil {
		return s.err
	}
	s.comments = append(s.comments, posted{Description: description, File: file, Line: line})
	return nil
}

// recordSleeps replaces real waiting with a recorder.
func recordSleeps(r *Reviewer) *[]time.Duration {
	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return &slept
}

func changedFiles() []ChangedFile {
	return []ChangedFile{{
		Filename:  "pkg/server/server.go",
		Status:    "modified",
		Additions: 4,
		Deletions: 1,
		Changes:   5,
		Patch:     "@@ -10,2 +10,5 @@\n-\told\n+\tnew",
	}}
}

func TestReviewSucceedsFirstAttempt(t *testing.T) {
	t.Parallel()
	svc := &fakeService{
		transcript: []agent.Message{
			{Role: agent.RoleAssistant, Text: "All good."},
			{Role: agent.RoleUser, Text: "Please review"},
		},
	}
	r, err := New(svc, &fakeSource{}, &fakeSink{})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	recordSleeps(r)

	got, err := r.Review(context.Background(), changedFiles())
	if err != nil {
		t.Fatalf("Review() = %v", err)
	}

	want := []agent.Message{
		{Role: agent.RoleUser, Text: "Please review"},
		{Role: agent.RoleAssistant, Text: "All good."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	if svc.conversations != 1 {
		t.Errorf("conversations = %d, want 1", svc.conversations)
	}
	if len(svc.deleted) != 0 {
		t.Errorf("deleted %v, want none on success", svc.deleted)
	}
}

func TestReviewRequestCarriesChangedFiles(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	r, err := New(svc, &fakeSource{}, &fakeSink{})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	recordSleeps(r)

	if _, err := r.Review(context.Background(), changedFiles()); err != nil {
		t.Fatalf("Review() = %v", err)
	}
	if len(svc.userMessages) != 1 {
		t.Fatalf("user messages = %d, want 1", len(svc.userMessages))
	}
	for _, fragment := range []string{"pkg/server/server.go", `"status": "modified"`, "@@ -10,2 +10,5 @@"} {
		if !strings.Contains(svc.userMessages[0], fragment) {
			t.Errorf("request missing %q:\n%s", fragment, svc.userMessages[0])
		}
	}
}

func TestReviewDefinitionCarriesTools(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	r, err := New(svc, &fakeSource{}, &fakeSink{}, WithModel("gpt-4.1"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	recordSleeps(r)

	if _, err := r.Review(context.Background(), changedFiles()); err != nil {
		t.Fatalf("Review() = %v", err)
	}
	if svc.spec.Model != "gpt-4.1" {
		t.Errorf("definition model = %q, want gpt-4.1", svc.spec.Model)
	}
	names := map[string]bool{}
	for _, tool := range svc.spec.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{toolcall.NameFetchContext, toolcall.NamePostComment, toolcall.NameMarkDone} {
		if !names[want] {
			t.Errorf("definition missing tool %q", want)
		}
	}
}

func TestReviewRetriesWithBackoffAndCleansUp(t *testing.T) {
	t.Parallel()
	svc := &fakeService{
		script: []agent.RunState{{Status: agent.StatusFailed, LastError: "server melted"}},
		loop:   true,
	}
	r, err := New(svc, &fakeSource{}, &fakeSink{})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	slept := recordSleeps(r)

	_, err = r.Review(context.Background(), changedFiles())
	if err == nil {
		t.Fatal("Review() succeeded, want error")
	}
	if !strings.Contains(err.Error(), "server melted") {
		t.Errorf("error %v does not carry the run's last error", err)
	}

	if svc.definitions != 1 {
		t.Errorf("definitions = %d, want exactly 1 across attempts", svc.definitions)
	}
	if svc.conversations != 3 {
		t.Errorf("conversations = %d, want 3 attempts", svc.conversations)
	}
	want := []string{"conv-1", "conv-2", "conv-3"}
	if diff := cmp.Diff(want, svc.deleted); diff != "" {
		t.Errorf("deleted conversations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Duration{2 * time.Second, 4 * time.Second}, *slept); diff != "" {
		t.Errorf("backoff schedule mismatch (-want +got):\n%s", diff)
	}
}

func TestReviewRecoversOnSecondAttempt(t *testing.T) {
	t.Parallel()
	svc := &fakeService{
		script: []agent.RunState{
			{Status: agent.StatusExpired, LastError: "ran out of time"},
			{Status: agent.StatusCompleted},
		},
	}
	r, err := New(svc, &fakeSource{}, &fakeSink{})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	recordSleeps(r)

	if _, err := r.Review(context.Background(), changedFiles()); err != nil {
		t.Fatalf("Review() = %v", err)
	}
	if svc.conversations != 2 {
		t.Errorf("conversations = %d, want 2", svc.conversations)
	}
	if diff := cmp.Diff([]string{"conv-1"}, svc.deleted); diff != "" {
		t.Errorf("only the failed attempt's conversation should be deleted (-want +got):\n%s", diff)
	}
}

func TestOptionsRejectBadValues(t *testing.T) {
	t.Parallel()
	cases := []Option{
		WithModel(""),
		WithInstructions(""),
		WithPollInterval(0),
		WithPollInterval(-time.Second),
		WithMaxPolls(0),
	}
	for i, opt := range cases {
		if _, err := New(&fakeService{}, &fakeSource{}, &fakeSink{}, opt); err == nil {
			t.Errorf("case %d: New() accepted an invalid option", i)
		}
	}
}

func TestTranscriptReversesServiceOrder(t *testing.T) {
	t.Parallel()
	svc := &fakeService{
		transcript: []agent.Message{
			{Role: agent.RoleAssistant, Text: "C"},
			{Role: agent.RoleAssistant, Text: "B"},
			{Role: agent.RoleUser, Text: "A"},
		},
	}
	got, err := Transcript(context.Background(), svc, agent.Conversation{ID: "conv-1"})
	if err != nil {
		t.Fatalf("Transcript() = %v", err)
	}
	want := []agent.Message{
		{Role: agent.RoleUser, Text: "A"},
		{Role: agent.RoleAssistant, Text: "B"},
		{Role: agent.RoleAssistant, Text: "C"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestTranscriptPropagatesListError(t *testing.T) {
	t.Parallel()
	svc := &failingList{err: errors.New("listing broke")}
	if _, err := Transcript(context.Background(), svc, agent.Conversation{ID: "conv-1"}); err == nil {
		t.Fatal("Transcript() succeeded, want error")
	}
}

type failingList struct {
	fakeService
	err error
}

func (f *failingList) ListMessages(context.Context, agent.Conversation) ([]agent.Message, error) {
	return nil, f.err
}
