package sqlgen

import (
	"bytes"
	"strings"
)

const indentSize = 2

// printer lays out SQL text. In compact mode every line break becomes a
// single space and indentation is dropped, so one statement is one line.
type printer struct {
	pretty      bool
	output      *bytes.Buffer
	depth       int
	atLineStart bool
	pending     bool // a compact line break waiting to become a space
}

func newPrinter(pretty bool) *printer {
	return &printer{
		pretty:      pretty,
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// String returns the laid out SQL.
func (p *printer) String() string {
	return strings.TrimRight(p.output.String(), "\n ")
}

func (p *printer) write(s string) {
	if s == "" {
		return
	}
	if p.pending {
		p.output.WriteByte(' ')
		p.pending = false
	}
	if p.atLineStart && p.pretty {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *printer) newline() {
	if p.atLineStart {
		return
	}
	if !p.pretty {
		p.pending = true
		return
	}
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *printer) indent() {
	p.depth++
}

func (p *printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

// clause prints a keyword followed by a list. Items are separated by
// commas, or by AND when and is set. Pretty output puts each item on its
// own indented line.
func (p *printer) clause(keyword string, items []string, and bool) {
	if !p.pretty {
		sep := ", "
		if and {
			sep = " AND "
		}
		p.write(keyword + " " + strings.Join(items, sep))
		return
	}
	p.write(keyword)
	p.indent()
	for i, item := range items {
		p.newline()
		switch {
		case and && i > 0:
			p.write("AND " + item)
		case !and && i < len(items)-1:
			p.write(item + ",")
		default:
			p.write(item)
		}
	}
	p.dedent()
}

// list prints comma separated items, one per line in pretty output.
func (p *printer) list(items []string) {
	if !p.pretty {
		p.write(strings.Join(items, ", "))
		return
	}
	for i, item := range items {
		if i > 0 {
			p.newline()
		}
		if i < len(items)-1 {
			item += ","
		}
		p.write(item)
	}
}

// parens prints body inside parentheses, indented on its own lines in
// pretty mode.
func (p *printer) parens(body func() error) error {
	p.write("(")
	p.indent()
	if p.pretty {
		p.newline()
	}
	err := body()
	p.dedent()
	if p.pretty {
		p.newline()
	}
	p.write(")")
	return err
}
