/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines the tool surface offered to the review
// agent and dispatches the calls it issues. The recognized tools form
// a closed set: adding a tool means adding a variant here, and the
// dispatcher's type switch stops compiling until it is handled.
package toolcall

// Tool names advertised to the agent service.
const (
	NameFetchContext = "fetch_context"
	NamePostComment  = "post_comment"
	NameMarkDone     = "mark_done"
)

// Call is a tool invocation issued by the agent service: the call
// identifier, the tool name, and the decoded argument record.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// Request is the closed set of recognized tool requests. A raw Call
// parses to exactly one variant; names outside the set parse to
// Unknown rather than an error so the agent can be told what happened.
type Request interface {
	isRequest()
}

// FetchContext asks for a window of a changed file's content.
type FetchContext struct {
	Path      string
	StartLine int
	EndLine   int
}

// PostComment publishes a review finding on a file line.
type PostComment struct {
	File        string
	Line        int
	Description string
}

// MarkDone signals that the review analysis is complete.
type MarkDone struct{}

// Unknown carries an unrecognized tool name.
type Unknown struct {
	Name string
}

func (FetchContext) isRequest() {}
func (PostComment) isRequest()  {}
func (MarkDone) isRequest()     {}
func (Unknown) isRequest()      {}

// Parse maps a raw call onto the request set. Argument errors are
// returned so the dispatcher can report them as that call's result.
func Parse(call Call) (Request, error) {
	switch call.Name {
	case NameFetchContext:
		path, err := stringArg(call.Args, "pathToFile")
		if err != nil {
			return nil, err
		}
		start, err := intArg(call.Args, "startLineNumber")
		if err != nil {
			return nil, err
		}
		end, err := intArg(call.Args, "endLineNumber")
		if err != nil {
			return nil, err
		}
		return FetchContext{Path: path, StartLine: start, EndLine: end}, nil

	case NamePostComment:
		file, err := stringArg(call.Args, "fileName")
		if err != nil {
			return nil, err
		}
		line, err := intArg(call.Args, "lineNumber")
		if err != nil {
			return nil, err
		}
		description, err := stringArg(call.Args, "foundIssueDescription")
		if err != nil {
			return nil, err
		}
		return PostComment{File: file, Line: line, Description: description}, nil

	case NameMarkDone:
		return MarkDone{}, nil

	default:
		return Unknown{Name: call.Name}, nil
	}
}
