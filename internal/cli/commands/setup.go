package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/xsql/internal/config"
	"github.com/leapstack-labs/xsql/pkg/compiler"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/dialects"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Registry *dialect.Registry

	stdout io.Writer
}

// NewCommandContext builds the dialect registry from the built-in dialects
// and the configured overrides.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	reg, err := cfg.ApplyOverrides(dialects.Builtin())
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Registry: reg,
		stdout:   cmd.OutOrStdout(),
	}, nil
}

// Dialects looks up the configured target dialects.
func (c *CommandContext) Dialects() ([]*dialect.Dialect, error) {
	ds := make([]*dialect.Dialect, 0, len(c.Cfg.Dialects))
	for _, name := range c.Cfg.Dialects {
		d, err := c.Registry.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(c.Registry.List(), ", "))
		}
		ds = append(ds, d)
	}
	return ds, nil
}

// CompileOptions returns the compiler options for the current config.
func (c *CommandContext) CompileOptions() []compiler.Option {
	return []compiler.Option{
		compiler.WithLogger(c.Logger),
		compiler.WithPretty(c.pretty()),
		compiler.WithTemporary(c.Cfg.Temporary),
		compiler.WithIfNotExists(c.Cfg.IfNotExists),
	}
}

// pretty defaults to indented output when writing to a terminal.
func (c *CommandContext) pretty() bool {
	if c.Cfg.PrettySet {
		return c.Cfg.Pretty
	}
	return c.toStdout() && isTerminal(c.stdout)
}

func (c *CommandContext) toStdout() bool {
	return c.Cfg.Output == "" || c.Cfg.Output == config.DefaultOutput
}

// WriteOutput writes text to the configured output file or stdout.
func (c *CommandContext) WriteOutput(text string) error {
	if c.toStdout() {
		_, err := io.WriteString(c.stdout, text)
		return err
	}
	if err := os.WriteFile(c.Cfg.Output, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	c.Logger.Info("wrote output", "path", c.Cfg.Output, "bytes", len(text))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// section is one dialect's worth of statements.
type section struct {
	dialect    string
	statements []string
}

// renderSections joins statements with semicolons. Each section gets a
// comment header when there is more than one.
func renderSections(sections []section) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if len(sections) > 1 {
			fmt.Fprintf(&sb, "-- %s\n", s.dialect)
		}
		for _, stmt := range s.statements {
			sb.WriteString(stmt)
			sb.WriteString(";\n")
		}
	}
	return sb.String()
}
