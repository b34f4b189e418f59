package commands

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/xsql/internal/graphfile"
	"github.com/leapstack-labs/xsql/pkg/compiler"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/spf13/cobra"
)

// NewDDLCommand creates the ddl command.
func NewDDLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ddl <graph.yaml>",
		Short: "Render CREATE statements for the tables of a graph file",
		Long: `Render one CREATE statement per table the query reads, plus the sink.

Streaming dialects include watermark declarations and connector properties.
Use --temporary and --if-not-exists to adjust the statement head.`,
		Example: `  xsql ddl pipeline.yaml --dialect flink --if-not-exists`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return ddlFile(cc, args[0])
		},
	}
}

func ddlFile(cc *CommandContext, path string) error {
	ds, err := cc.Dialects()
	if err != nil {
		return err
	}
	g, err := graphfile.Load(path, ir.NewArena())
	if err != nil {
		return err
	}

	opts := cc.CompileOptions()
	sections := make([]section, 0, len(ds))
	for _, d := range ds {
		stmts, err := compiler.CompileDDL(g.Root, d, opts...)
		if err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
		if g.Sink != nil && !slices.Contains(ir.Tables(g.Root), g.Sink) {
			sink, err := compiler.CompileDDL(g.Sink, d, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", d.Name, err)
			}
			stmts = append(stmts, sink...)
		}
		sections = append(sections, section{dialect: d.Name, statements: stmts})
	}
	return cc.WriteOutput(renderSections(sections))
}
