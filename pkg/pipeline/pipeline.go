// Package pipeline runs the load → apply → render sequence shared by the CLI
// and the HTTP API.
//
// # Stages
//
//  1. Load: read a host graph file (JSON or DOT) and canonicalize it
//  2. Apply: apply production rules in the given order
//  3. Render: produce output artifacts (canonical JSON, DOT, SVG)
//
// Canonicalized inputs and rendered SVG are cached by content hash, so
// repeated runs over unchanged files skip parsing and Graphviz layout.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "A.dot",
//	    Rules:   []string{"expand.toml"},
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, err := runner.Load(ctx, "A.dot")
//	rule, err := runner.LoadRule(ctx, "expand.toml")
//	steps, err := runner.Apply(ctx, g, []*production.Rule{rule})
//	artifacts, err := runner.Render(ctx, g, opts)
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphprod/pkg/cache"
	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
	"github.com/matzehuels/graphprod/pkg/production"
	"github.com/matzehuels/graphprod/pkg/stats"
)

// Format constants for output artifacts.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// Options contains all configuration for a pipeline run.
type Options struct {
	// Input is the host graph file (.json, .dot or .gv).
	Input string `json:"input"`
	// Rules are TOML rule files, applied in order.
	Rules []string `json:"rules,omitempty"`
	// Formats lists the artifacts to produce. Empty produces none.
	Formats []string `json:"formats,omitempty"`
	// Detailed adds identifiers, degrees and metadata to rendered labels.
	Detailed bool `json:"detailed,omitempty"`
	// Title is drawn under rendered diagrams.
	Title string `json:"title,omitempty"`
	// Refresh skips cache reads; results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result holds everything a pipeline run produced.
type Result struct {
	Graph     *graph.Graph
	GraphHash string
	Stats     stats.Statistics
	Steps     []Step
	Artifacts map[string][]byte
	Timing    Timing
	CacheInfo CacheInfo
}

// Step pairs an applied rule with its outcome.
type Step struct {
	Rule   *production.Rule
	Result *production.Result
}

// Timing records how long each stage took.
type Timing struct {
	LoadTime   time.Duration
	ApplyTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	LoadHit   bool
	RenderHit bool
}

// ValidateFormat checks that a single output format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all output formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the options before a run.
func (o *Options) Validate() error {
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input graph is required")
	}
	if err := errors.ValidatePath(o.Input); err != nil {
		return err
	}
	for _, r := range o.Rules {
		if err := errors.ValidatePath(r); err != nil {
			return fmt.Errorf("rule %q: %w", r, err)
		}
	}
	return ValidateFormats(o.Formats)
}

// RenderKeyOpts returns the options that affect rendered output.
func (o *Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{Detailed: o.Detailed, Title: o.Title}
}
