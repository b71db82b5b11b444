/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Definition describes one tool to the agent service: its name, a
// description the model reads, and a JSON schema for its arguments.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Argument shapes the agent must honor. The JSON schemas advertised
// to the service are reflected from these structs, so the schema and
// the parser in Parse cannot drift apart silently.
type fetchContextArgs struct {
	PathToFile      string `json:"pathToFile" jsonschema:"required,description=Path of the changed file to read more of"`
	StartLineNumber int    `json:"startLineNumber" jsonschema:"required,description=First line of the range in question"`
	EndLineNumber   int    `json:"endLineNumber" jsonschema:"required,description=Last line of the range in question"`
}

type postCommentArgs struct {
	FileName              string `json:"fileName" jsonschema:"required,description=File the finding applies to"`
	LineNumber            int    `json:"lineNumber" jsonschema:"required,description=Line the finding applies to"`
	FoundIssueDescription string `json:"foundIssueDescription" jsonschema:"required,description=Description of the issue found"`
}

type markDoneArgs struct{}

// Definitions returns the tool schema advertised to the agent service.
func Definitions() []Definition {
	return []Definition{
		{
			Name:        NameFetchContext,
			Description: "Fetch a window of a changed file's content when the diff alone is not enough context.",
			Parameters:  schemaFor(&fetchContextArgs{}),
		},
		{
			Name:        NamePostComment,
			Description: "Publish a review comment describing an issue found on a specific line of a changed file.",
			Parameters:  schemaFor(&postCommentArgs{}),
		},
		{
			Name:        NameMarkDone,
			Description: "Signal that the review is complete. Call this exactly once, after all findings are posted.",
			Parameters:  schemaFor(&markDoneArgs{}),
		},
	}
}

var reflector = jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	AllowAdditionalProperties:  true,
	DoNotReference:             true,
}

// schemaFor reflects an argument struct into the map shape the service
// APIs take for function parameters. The inputs are package-level
// literals, so a marshaling failure is a programming error.
func schemaFor(v any) map[string]any {
	s := reflector.Reflect(v)
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("marshaling tool schema: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(fmt.Sprintf("decoding tool schema: %v", err))
	}
	return m
}
