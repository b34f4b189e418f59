package commands

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the available dialects and their features",
		Long: `List every registered dialect with its execution mode and the
features the compiler rewrites around. Configured dialect_overrides
are applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			renderDialects(cmd.OutOrStdout(), cc.Registry.All())
			return nil
		},
	}
}

func renderDialects(w io.Writer, ds []*dialect.Dialect) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Dialect", "Mode", "Distinct", "Qualify", "Filter", "Window TVF", "Frame Unit"})

	titleCaser := cases.Title(language.English)
	for _, d := range ds {
		t.AppendRow(table.Row{
			d.Name,
			titleCaser.String(d.Mode().String()),
			yesNo(d.SupportsNativeDistinct()),
			yesNo(d.SupportsQualify()),
			yesNo(d.SupportsFilterClause()),
			yesNo(d.SupportsWindowTVF()),
			d.FrameTimeUnit().String(),
		})
	}
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
