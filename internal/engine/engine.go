// Package engine orchestrates the full compilation pipeline: parse the
// FHIRPath expression, lower it to fragments, wrap the fragments into CTEs,
// and assemble one executable statement per dialect.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fhirlake-labs/fhirsql/internal/cte"
	"github.com/fhirlake-labs/fhirsql/internal/parser"
	"github.com/fhirlake-labs/fhirsql/internal/translator"
	"github.com/fhirlake-labs/fhirsql/pkg/core"
	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
	"github.com/fhirlake-labs/fhirsql/pkg/schema"
)

// Engine compiles FHIRPath expressions to SQL. It holds only read-only
// collaborators and is safe for concurrent use.
type Engine struct {
	provider schema.Provider
	logger   *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Provider supplies element metadata (array-ness, declared types).
	// Defaults to the built-in R4 definitions.
	Provider schema.Provider
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a new engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	provider := cfg.Provider
	if provider == nil {
		provider = schema.R4()
	}
	return &Engine{provider: provider, logger: logger}
}

// CompileResult is the output of one expression compiled for one dialect.
type CompileResult struct {
	Dialect      string
	Expression   string
	ResourceType string
	Table        string
	SQL          string
	Fragments    []core.Fragment
	CTEs         []core.CTE
}

// Compile runs the full pipeline for one dialect.
func (e *Engine) Compile(expression, resourceType, table, dialectName string) (*CompileResult, error) {
	d, ok := dialect.Get(strings.ToLower(dialectName))
	if !ok {
		return nil, &dialect.UnknownDialectError{Name: dialectName, Available: dialect.List()}
	}
	if table == "" {
		table = strings.ToLower(schema.NormalizeResource(resourceType))
	}

	e.logger.Debug("compiling expression",
		"expression", expression, "resource", resourceType, "dialect", d.Name())

	root, err := parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", expression, err)
	}

	fragments, err := translator.New(d, e.provider).Translate(root, resourceType, table)
	if err != nil {
		return nil, fmt.Errorf("translate %q: %w", expression, err)
	}

	ctes, err := cte.NewBuilder(d).BuildChain(fragments)
	if err != nil {
		return nil, fmt.Errorf("build CTE chain for %q: %w", expression, err)
	}

	sql, err := cte.Assemble(ctes)
	if err != nil {
		return nil, fmt.Errorf("assemble %q: %w", expression, err)
	}

	e.logger.Debug("compiled expression", "ctes", len(ctes), "dialect", d.Name())

	return &CompileResult{
		Dialect:      d.Name(),
		Expression:   expression,
		ResourceType: schema.NormalizeResource(resourceType),
		Table:        table,
		SQL:          sql,
		Fragments:    fragments,
		CTEs:         ctes,
	}, nil
}

// CompileAll compiles one expression for several dialects concurrently.
// Results come back keyed and sorted by dialect name; the first failure
// aborts the batch.
func (e *Engine) CompileAll(expression, resourceType, table string, dialects []string) ([]*CompileResult, error) {
	if len(dialects) == 0 {
		dialects = dialect.List()
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make([]*CompileResult, 0, len(dialects))
	)
	for _, name := range dialects {
		g.Go(func() error {
			res, err := e.Compile(expression, resourceType, table, name)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Dialect < results[j].Dialect })
	return results, nil
}
