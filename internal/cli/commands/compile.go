package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/xsql/internal/graphfile"
	"github.com/leapstack-labs/xsql/pkg/compiler"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/spf13/cobra"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	var (
		watch     bool
		view      string
		tableAs   string
		orReplace bool
	)

	cmd := &cobra.Command{
		Use:   "compile <graph.yaml>",
		Short: "Compile a graph file to SQL",
		Long: `Compile the query of a graph file for every configured dialect.

When the graph declares a sink table the query is compiled into
INSERT INTO <sink> SELECT ... --view and --table-as wrap the query in
CREATE VIEW or CREATE TABLE ... AS instead.`,
		Example: `  # Compile for Flink and RisingWave
  xsql compile pipeline.yaml --dialect flink,risingwave

  # Declare the query as a view, replacing an existing one
  xsql compile pipeline.yaml --dialect postgres --view daily_totals --or-replace

  # Recompile whenever the file changes
  xsql compile pipeline.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			var extra []compiler.Option
			if view != "" {
				extra = append(extra, compiler.WithView(view))
			}
			if tableAs != "" {
				extra = append(extra, compiler.WithTableAs(tableAs))
			}
			if orReplace {
				if view == "" {
					return fmt.Errorf("--or-replace requires --view")
				}
				extra = append(extra, compiler.WithOrReplace(true))
			}

			if !watch {
				return compileFile(cmd.Context(), cc, args[0], extra...)
			}
			return Watch(cmd.Context(), args[0], cc.Logger, func() {
				if err := compileFile(cmd.Context(), cc, args[0], extra...); err != nil {
					cc.Logger.Error("compile failed", "file", args[0], "error", err)
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Recompile when the graph file changes")
	cmd.Flags().StringVar(&view, "view", "", "Emit CREATE VIEW <name> AS SELECT ...")
	cmd.Flags().StringVar(&tableAs, "table-as", "", "Emit CREATE TABLE <name> AS SELECT ...")
	cmd.Flags().BoolVar(&orReplace, "or-replace", false, "Replace an existing view (with --view)")
	cmd.MarkFlagsMutuallyExclusive("view", "table-as")

	return cmd
}

func compileFile(ctx context.Context, cc *CommandContext, path string, extra ...compiler.Option) error {
	ds, err := cc.Dialects()
	if err != nil {
		return err
	}
	a := ir.NewArena()
	g, err := graphfile.Load(path, a)
	if err != nil {
		return err
	}

	opts := cc.CompileOptions()
	if g.Sink != nil {
		opts = append(opts, compiler.WithSink(g.Sink))
	}
	opts = append(opts, extra...)
	results, err := compiler.CompileAll(ctx, a, g.Root, ds, opts...)
	if err != nil {
		return err
	}

	sections := make([]section, len(results))
	for i, r := range results {
		sections[i] = section{dialect: r.Dialect, statements: []string{r.SQL}}
	}
	cc.Logger.Debug("compiled graph", "file", path, "dialects", len(ds))
	return cc.WriteOutput(renderSections(sections))
}
