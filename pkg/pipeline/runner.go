package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphprod/pkg/cache"
	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
	pkgio "github.com/matzehuels/graphprod/pkg/io"
	"github.com/matzehuels/graphprod/pkg/observability"
	"github.com/matzehuels/graphprod/pkg/production"
	"github.com/matzehuels/graphprod/pkg/render"
	"github.com/matzehuels/graphprod/pkg/stats"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger, so multiple
// goroutines can share one Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → apply → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)
	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	g, hit, err := r.loadWithCacheInfo(ctx, opts.Input, opts.Refresh)
	if err != nil {
		return nil, err
	}
	result.Timing.LoadTime = time.Since(loadStart)
	result.CacheInfo.LoadHit = hit
	logger.Info("loaded host graph",
		"vertices", g.VertexCount(),
		"edges", g.EdgeCount(),
		"cached", hit,
		"duration", result.Timing.LoadTime)

	// Stage 2: Apply
	applyStart := time.Now()
	rules := make([]*production.Rule, 0, len(opts.Rules))
	for _, path := range opts.Rules {
		rule, err := r.LoadRule(ctx, path)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	steps, err := r.applyRules(ctx, g, rules, logger)
	if err != nil {
		return nil, err
	}
	result.Steps = steps
	result.Timing.ApplyTime = time.Since(applyStart)

	s, err := stats.Compute(g)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats = s

	// Stage 3: Render
	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		artifacts, hit, err := r.RenderWithCacheInfo(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		result.Artifacts = artifacts
		result.Timing.RenderTime = time.Since(renderStart)
		result.CacheInfo.RenderHit = hit
		logger.Info("rendered outputs",
			"formats", opts.Formats,
			"cached", hit,
			"duration", result.Timing.RenderTime)
	}

	if hash, _, err := cache.HashGraph(g); err == nil {
		result.GraphHash = hash
	}
	return result, nil
}

// LoadWithCacheInfo reads and canonicalizes a graph file, consulting the
// cache first. The boolean reports a cache hit.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, path string) (*graph.Graph, bool, error) {
	return r.loadWithCacheInfo(ctx, path, false)
}

// Load is LoadWithCacheInfo without the cache hit info.
func (r *Runner) Load(ctx context.Context, path string) (*graph.Graph, error) {
	g, _, err := r.loadWithCacheInfo(ctx, path, false)
	return g, err
}

func (r *Runner) loadWithCacheInfo(ctx context.Context, path string, refresh bool) (*graph.Graph, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, path)
	start := time.Now()
	g, hit, err := r.load(ctx, path, refresh)
	vertices := 0
	if g != nil {
		vertices = g.VertexCount()
	}
	hooks.OnLoadComplete(ctx, path, vertices, hit, time.Since(start), err)
	return g, hit, err
}

func (r *Runner) load(ctx context.Context, path string, refresh bool) (*graph.Graph, bool, error) {
	format := pkgio.FormatOf(path)
	if format == "" {
		return nil, false, errors.New(errors.ErrCodeInvalidFormat, "unsupported graph file %s (want .json, .dot or .gv)", path)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.GraphKey(format, cache.Hash(data))
	if !refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := pkgio.UnmarshalGraph(cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				return g, true, nil
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "graph")

	raw, err := pkgio.Decode(data, format)
	if err != nil {
		return nil, false, err
	}
	g, err := graph.Canonicalize(raw)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidGraph, err, "canonicalize %s", path)
	}

	if out, err := pkgio.MarshalGraph(g); err == nil {
		if r.Cache.Set(ctx, cacheKey, out, cache.TTLGraph) == nil {
			observability.Cache().OnCacheSet(ctx, "graph", len(out))
		}
	}
	return g, false, nil
}

// LoadRule reads a TOML rule file and loads its replacement graph through
// the cache.
func (r *Runner) LoadRule(ctx context.Context, path string) (*production.Rule, error) {
	rf, err := pkgio.ReadRuleFile(path)
	if err != nil {
		return nil, err
	}
	rhs, err := r.Load(ctx, pkgio.ResolveRelative(path, rf.Replacement))
	if err != nil {
		return nil, err
	}
	return rf.Rule(rhs), nil
}

// Apply applies rules to g in order and stops at the first failure.
// Steps that succeeded before the failure remain applied to g.
func (r *Runner) Apply(ctx context.Context, g *graph.Graph, rules []*production.Rule) ([]Step, error) {
	return r.applyRules(ctx, g, rules, r.Logger)
}

func (r *Runner) applyRules(ctx context.Context, g *graph.Graph, rules []*production.Rule, logger *log.Logger) ([]Step, error) {
	steps := make([]Step, 0, len(rules))
	for i, rule := range rules {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		hooks := observability.Pipeline()
		hooks.OnApplyStart(ctx, rule.Name, rule.Target)
		start := time.Now()
		res, err := rule.Apply(g)
		if err != nil {
			hooks.OnApplyComplete(ctx, rule.Name, 0, time.Since(start), err)
			return steps, fmt.Errorf("step %d (%s): %w", i+1, rule.Name, err)
		}
		hooks.OnApplyComplete(ctx, rule.Name, res.Dropped(), time.Since(start), nil)
		steps = append(steps, Step{Rule: rule, Result: res})

		logger.Info("applied production",
			"step", i+1,
			"rule", rule.Name,
			"target", rule.Target,
			"vertices", res.Stats.Vertices,
			"edges", res.Stats.Edges)
		for _, d := range res.Dangling {
			if d.Dropped() {
				logger.Warn("dropped dangling edge",
					"neighbor", d.Neighbor,
					"label", d.Label,
					"destination", d.Destination)
			}
		}
	}
	return steps, nil
}

// RenderWithCacheInfo produces the requested artifacts for g. Only SVG is
// cached; JSON and DOT are cheap to regenerate. The boolean reports whether
// the SVG came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, hit, err := r.render(ctx, g, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, hit, err
}

func (r *Runner) render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	graphHash, graphData, err := cache.HashGraph(g)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize graph")
	}
	renderOpts := render.Options{Detailed: opts.Detailed, Title: opts.Title}

	artifacts := make(map[string][]byte, len(opts.Formats))
	hit := false
	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			artifacts[format] = graphData
		case FormatDOT:
			artifacts[format] = []byte(render.ToDOT(g, renderOpts))
		case FormatSVG:
			cacheKey := r.Keyer.RenderKey(graphHash, opts.RenderKeyOpts())
			if !opts.Refresh {
				if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
					observability.Cache().OnCacheHit(ctx, "svg")
					artifacts[format] = data
					hit = true
					continue
				}
			}
			observability.Cache().OnCacheMiss(ctx, "svg")
			svg, err := render.Graph(ctx, g, renderOpts)
			if err != nil {
				return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render SVG")
			}
			if r.Cache.Set(ctx, cacheKey, svg, cache.TTLRender) == nil {
				observability.Cache().OnCacheSet(ctx, "svg", len(svg))
			}
			artifacts[format] = svg
		}
	}
	return artifacts, hit, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
