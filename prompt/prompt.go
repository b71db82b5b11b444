/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package prompt builds agent prompts from templates with explicit
// {{name}} placeholders. Every placeholder must be bound before Build
// succeeds, so a template change cannot silently ship an unbound hole
// to the model.
package prompt

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)

// Prompt is a template with bindable placeholders. Binding returns a
// new Prompt; templates are safe to share as package variables.
type Prompt struct {
	template string
	bindings map[string]func() (string, error)
}

// New parses a template and records its placeholders.
func New(template string) (*Prompt, error) {
	bindings := make(map[string]func() (string, error))
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		bindings[m[1]] = nil
	}
	if strings.Contains(placeholderPattern.ReplaceAllString(template, ""), "{{") {
		return nil, fmt.Errorf("template contains a malformed placeholder")
	}
	return &Prompt{template: template, bindings: bindings}, nil
}

// MustNew is New for package-level template literals.
func MustNew(template string) *Prompt {
	p, err := New(template)
	if err != nil {
		panic(err)
	}
	return p
}

// BindString binds a plain string value to a placeholder.
func (p *Prompt) BindString(name, value string) (*Prompt, error) {
	return p.bind(name, func() (string, error) { return value, nil })
}

// BindJSON binds structured data to a placeholder, marshaled as
// indented JSON when the prompt is built.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, func() (string, error) {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling %s: %w", name, err)
		}
		return string(b), nil
	})
}

func (p *Prompt) bind(name string, value func() (string, error)) (*Prompt, error) {
	existing, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("no placeholder %q in template", name)
	}
	if existing != nil {
		return nil, fmt.Errorf("placeholder %q is already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = value
	return next, nil
}

// Build renders the template, failing if any placeholder is unbound.
func (p *Prompt) Build() (string, error) {
	var buildErr error
	out := placeholderPattern.ReplaceAllStringFunc(p.template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value := p.bindings[name]
		if value == nil {
			buildErr = fmt.Errorf("placeholder %q is unbound", name)
			return match
		}
		v, err := value()
		if err != nil {
			buildErr = err
			return match
		}
		return v
	})
	if buildErr != nil {
		return "", buildErr
	}
	return out, nil
}

// Placeholders returns the set of placeholder names in the template.
func (p *Prompt) Placeholders() map[string]struct{} {
	names := make(map[string]struct{}, len(p.bindings))
	for name := range p.bindings {
		names[name] = struct{}{}
	}
	return names
}
