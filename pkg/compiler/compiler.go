// Package compiler runs the full compile pipeline for an expression graph:
// resolve, rewrite for the target dialect, resolve again and emit SQL.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/leapstack-labs/xsql/pkg/resolve"
	"github.com/leapstack-labs/xsql/pkg/rewrite"
	"github.com/leapstack-labs/xsql/pkg/sqlgen"
	"golang.org/x/sync/errgroup"
)

// Option configures a compilation.
type Option func(*options)

type options struct {
	logger *slog.Logger
	gen    sqlgen.Options
	sink   *ir.Node
	view   string
	ctas   string
}

// WithLogger sets the structured logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPretty selects indented multi-line output.
func WithPretty(pretty bool) Option {
	return func(o *options) { o.gen.Pretty = pretty }
}

// WithTemporary declares tables as TEMPORARY in DDL.
func WithTemporary(temporary bool) Option {
	return func(o *options) { o.gen.Temporary = temporary }
}

// WithIfNotExists adds IF NOT EXISTS to DDL.
func WithIfNotExists(ifNotExists bool) Option {
	return func(o *options) { o.gen.IfNotExists = ifNotExists }
}

// WithSink makes CompileAll emit INSERT INTO sink SELECT ... instead of a
// bare SELECT.
func WithSink(sink *ir.Node) Option {
	return func(o *options) { o.sink = sink }
}

// WithOrReplace makes views replace an existing view of the same name.
func WithOrReplace(orReplace bool) Option {
	return func(o *options) { o.gen.OrReplace = orReplace }
}

// WithView makes CompileAll emit CREATE VIEW name AS SELECT ... It takes
// precedence over WithTableAs and WithSink.
func WithView(name string) Option {
	return func(o *options) { o.view = name }
}

// WithTableAs makes CompileAll emit CREATE TABLE name AS SELECT ... It
// takes precedence over WithSink.
func WithTableAs(name string) Option {
	return func(o *options) { o.ctas = name }
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Prepare resolves root, applies the rewrite passes for d and resolves the
// result. The rewritten graph has the same output columns as root.
func Prepare(a *ir.Arena, root *ir.Node, d *dialect.Dialect, opts ...Option) (*ir.Node, error) {
	return prepare(a, root, d, newOptions(opts))
}

func prepare(a *ir.Arena, root *ir.Node, d *dialect.Dialect, o *options) (*ir.Node, error) {
	log := o.logger.With("dialect", d.Name)

	res, err := resolve.Resolve(root)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved graph", "tables", len(res.Tables), "columns", res.Schema.Len())

	cur := root
	for _, p := range rewrite.Passes() {
		out, err := p.Run(a, cur, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		if out != cur {
			log.Debug("rewrite applied", "pass", p.Name)
		}
		cur = out
	}

	rewritten, err := resolve.Resolve(cur)
	if err != nil {
		return nil, fmt.Errorf("rewritten graph: %w", err)
	}
	if !slices.Equal(res.Schema.Names(), rewritten.Schema.Names()) {
		return nil, fmt.Errorf("rewrite changed the output columns from %v to %v", res.Schema.Names(), rewritten.Schema.Names())
	}
	return cur, nil
}

// Compile compiles root into a SELECT statement for d.
func Compile(a *ir.Arena, root *ir.Node, d *dialect.Dialect, opts ...Option) (string, error) {
	o := newOptions(opts)
	plan, err := prepare(a, root, d, o)
	if err != nil {
		return "", err
	}
	sql, err := sqlgen.Select(plan, d, o.gen)
	if err != nil {
		return "", err
	}
	o.logger.Debug("compiled query", "dialect", d.Name, "bytes", len(sql))
	return sql, nil
}

// CompileDDL renders one CREATE statement per distinct table referenced by
// root, in alias order.
func CompileDDL(root *ir.Node, d *dialect.Dialect, opts ...Option) ([]string, error) {
	o := newOptions(opts)
	res, err := resolve.Resolve(root)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]*ir.Node)
	var stmts []string
	for _, t := range res.Tables {
		if prev, ok := seen[t.TableName()]; ok {
			if prev != t {
				return nil, &core.SchemaResolutionError{
					Ref:     t.TableName(),
					Table:   t.TableName(),
					Node:    ir.Describe(t),
					Message: "table is declared twice with different definitions",
				}
			}
			continue
		}
		seen[t.TableName()] = t
		stmt, err := sqlgen.CreateTable(t, d, o.gen)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", t.TableName(), err)
		}
		stmts = append(stmts, stmt)
	}
	o.logger.Debug("compiled ddl", "dialect", d.Name, "statements", len(stmts))
	return stmts, nil
}

// CompileInsert compiles root into INSERT INTO sink SELECT ... for d.
func CompileInsert(a *ir.Arena, sink, root *ir.Node, d *dialect.Dialect, opts ...Option) (string, error) {
	o := newOptions(opts)
	plan, err := prepare(a, root, d, o)
	if err != nil {
		return "", err
	}
	return sqlgen.InsertInto(sink, plan, d, o.gen)
}

// CompileView compiles root into CREATE VIEW name AS SELECT ... for d.
func CompileView(a *ir.Arena, name string, root *ir.Node, d *dialect.Dialect, opts ...Option) (string, error) {
	o := newOptions(opts)
	plan, err := prepare(a, root, d, o)
	if err != nil {
		return "", err
	}
	return sqlgen.CreateView(name, plan, d, o.gen)
}

// CompileTableAs compiles root into CREATE TABLE name AS SELECT ... for d.
func CompileTableAs(a *ir.Arena, name string, root *ir.Node, d *dialect.Dialect, opts ...Option) (string, error) {
	o := newOptions(opts)
	plan, err := prepare(a, root, d, o)
	if err != nil {
		return "", err
	}
	return sqlgen.CreateTableAs(name, plan, d, o.gen)
}

// Result is the compiled SQL of one dialect.
type Result struct {
	Dialect string
	SQL     string
}

// CompileAll compiles root for every dialect concurrently. Results are in
// the order of dialects. The first failure cancels the dialects that have
// not started yet and is returned.
func CompileAll(ctx context.Context, a *ir.Arena, root *ir.Node, dialects []*dialect.Dialect, opts ...Option) ([]Result, error) {
	o := newOptions(opts)
	results := make([]Result, len(dialects))
	eg, egctx := errgroup.WithContext(ctx)
	for i, d := range dialects {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			var sql string
			var err error
			switch {
			case o.view != "":
				sql, err = CompileView(a, o.view, root, d, opts...)
			case o.ctas != "":
				sql, err = CompileTableAs(a, o.ctas, root, d, opts...)
			case o.sink != nil:
				sql, err = CompileInsert(a, o.sink, root, d, opts...)
			default:
				sql, err = Compile(a, root, d, opts...)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", d.Name, err)
			}
			results[i] = Result{Dialect: d.Name, SQL: sql}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
