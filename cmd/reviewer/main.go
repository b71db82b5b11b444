/*
Copyright 2026 AI Code Review Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package main reviews one GitHub pull request with a conversational
// agent and posts the findings back as review comments.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bw00786/ai-code-review/agent/openaiagent"
	"github.com/bw00786/ai-code-review/githubreview"
	"github.com/bw00786/ai-code-review/review"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/oauth2"
)

type config struct {
	GitHubToken  string `env:"GITHUB_TOKEN,required"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY,required"`
	Model        string `env:"OPENAI_MODEL,default=gpt-4o"`

	Owner    string `env:"PR_OWNER,required"`
	Repo     string `env:"PR_REPO,required"`
	PRNumber int    `env:"PR_NUMBER,required"`

	PollInterval time.Duration `env:"POLL_INTERVAL,default=1s"`
	MaxPolls     int           `env:"MAX_POLLS,default=600"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	gh := github.NewClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GitHubToken},
	)))
	pr := githubreview.PR{Owner: cfg.Owner, Repo: cfg.Repo, Number: cfg.PRNumber}

	clog.InfoContextf(ctx, "Reviewing %s with %s", pr, cfg.Model)

	files, err := githubreview.ChangedFiles(ctx, gh, pr)
	if err != nil {
		clog.FatalContextf(ctx, "listing changed files: %v", err)
	}
	if len(files) == 0 {
		clog.InfoContextf(ctx, "No changed files on %s, nothing to review", pr)
		return
	}

	head, err := githubreview.HeadSHA(ctx, gh, pr)
	if err != nil {
		clog.FatalContextf(ctx, "resolving head commit: %v", err)
	}

	reviewer, err := review.New(
		openaiagent.New(cfg.OpenAIAPIKey, cfg.Model),
		githubreview.NewSource(gh, pr, head),
		githubreview.NewSink(gh, pr, head, files),
		review.WithModel(cfg.Model),
		review.WithPollInterval(cfg.PollInterval),
		review.WithMaxPolls(cfg.MaxPolls),
	)
	if err != nil {
		clog.FatalContextf(ctx, "configuring reviewer: %v", err)
	}

	transcript, err := reviewer.Review(ctx, files)
	if err != nil {
		clog.FatalContextf(ctx, "review failed: %v", err)
	}
	clog.InfoContextf(ctx, "Review of %s finished with %d transcript messages", pr, len(transcript))
}
