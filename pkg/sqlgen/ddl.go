package sqlgen

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/ir"
)

const (
	errMsgNoPropertiesInDDL = "dialect cannot declare connector properties"
	errMsgNoIfExists        = "dialect has no IF [NOT] EXISTS clause"
)

// CreateTable renders the CREATE statement declaring table, including its
// watermark and connector properties when it has them.
func CreateTable(table *ir.Node, d *dialect.Dialect, opts Options) (string, error) {
	if table == nil || table.Op() != ir.OpTable {
		return "", &core.TypeMismatchError{Op: "create_table", Node: describe(table), Message: "expected an unbound table"}
	}
	ddl := d.DDL()

	head := "CREATE "
	if opts.Temporary {
		head += "TEMPORARY "
	}
	head += createKeyword(ddl) + " "
	if opts.IfNotExists {
		if !ddl.SupportsIfExists {
			return "", &core.UnsupportedOperationError{Op: "create if not exists", Dialect: d.Name, Node: ir.Describe(table), Message: errMsgNoIfExists}
		}
		head += "IF NOT EXISTS "
	}

	var items []string
	for _, f := range table.Schema().Fields() {
		typ, err := d.TypeName(f.Type.Name())
		if err != nil {
			return "", attribute(err, table)
		}
		item := d.QuoteIdentifierIfNeeded(f.Name) + " " + typ
		if f.Type.NotNull {
			item += " NOT NULL"
		}
		items = append(items, item)
	}
	if wm := table.Watermark(); wm != nil {
		col := d.QuoteIdentifierIfNeeded(wm.TimeCol)
		clause, err := d.RenderWatermark(col, d.IntervalLiteral(wm.AllowedDelay.Value, wm.AllowedDelay.Unit))
		if err != nil {
			return "", attribute(err, table)
		}
		items = append(items, clause)
	}

	p := newPrinter(opts.Pretty)
	p.write(head + (&generator{d: d}).tableName(table.TableName()) + " ")
	_ = p.parens(func() error {
		p.list(items)
		return nil
	})

	if src := table.Source(); src != nil {
		props, err := properties(src, d)
		if err != nil {
			return "", attribute(err, table)
		}
		p.newline()
		p.write(props)
		format, err := d.RenderFormat(formatClause(src, ddl))
		if err != nil {
			return "", err
		}
		if format != "" {
			p.newline()
			p.write(format)
		}
	}
	return p.String(), nil
}

func createKeyword(ddl core.DDLConfig) string {
	if ddl.CreateKeyword == "" {
		return "TABLE"
	}
	return ddl.CreateKeyword
}

// formatClause returns the format rendered outside the properties clause.
func formatClause(src *ir.Source, ddl core.DDLConfig) string {
	if ddl.FormatKey != "" {
		return ""
	}
	return src.Format
}

// properties renders the connector properties clause: the structured
// source fields first, then the extra properties in key order.
func properties(src *ir.Source, d *dialect.Dialect) (string, error) {
	ddl := d.DDL()
	if ddl.Properties == core.PropertiesNone {
		return "", &core.UnsupportedOperationError{Op: "source", Dialect: d.Name, Message: errMsgNoPropertiesInDDL}
	}

	type kv struct{ key, value string }
	var pairs []kv
	add := func(key, value string) {
		if key != "" && value != "" {
			pairs = append(pairs, kv{key, value})
		}
	}
	add(ddl.ConnectorKey, src.Connector)
	add(ddl.TopicKey, src.Topic)
	add(ddl.FormatKey, src.Format)
	for _, k := range src.PropertyKeys() {
		add(k, src.Properties[k])
	}

	rendered := make([]string, len(pairs))
	for i, p := range pairs {
		key := d.QuoteString(p.key)
		if ddl.Properties == core.PropertiesWithBare {
			key = p.key
		}
		rendered[i] = key + " = " + d.QuoteString(p.value)
	}

	kw := "WITH"
	if ddl.Properties == core.PropertiesTblProperties {
		kw = "TBLPROPERTIES"
	}
	return kw + " (" + strings.Join(rendered, ", ") + ")", nil
}

// CreateView renders CREATE [OR REPLACE] [TEMPORARY] VIEW name AS SELECT ...
// for root.
func CreateView(name string, root *ir.Node, d *dialect.Dialect, opts Options) (string, error) {
	return createAs("VIEW", name, root, d, opts)
}

// CreateTableAs renders CREATE [TEMPORARY] TABLE name AS SELECT ... for root.
// The table takes the columns of root.
func CreateTableAs(name string, root *ir.Node, d *dialect.Dialect, opts Options) (string, error) {
	return createAs("TABLE", name, root, d, opts)
}

func createAs(kind, name string, root *ir.Node, d *dialect.Dialect, opts Options) (string, error) {
	op := "create " + strings.ToLower(kind)
	if name == "" {
		return "", &core.TypeMismatchError{Op: op, Node: describe(root), Message: "empty name"}
	}
	if root == nil || !root.IsRelation() {
		return "", &core.TypeMismatchError{Op: op, Node: describe(root), Message: "expected a relation"}
	}
	ddl := d.DDL()

	head := "CREATE "
	if opts.OrReplace {
		switch {
		case kind != "VIEW" || !ddl.SupportsReplaceView:
			return "", &core.UnsupportedOperationError{Op: op + " or replace", Dialect: d.Name, Node: name, Message: "dialect cannot replace an existing " + strings.ToLower(kind)}
		case opts.IfNotExists:
			return "", &core.UnsupportedOperationError{Op: op + " or replace", Dialect: d.Name, Node: name, Message: "OR REPLACE and IF NOT EXISTS are exclusive"}
		}
		head += "OR REPLACE "
	}
	if opts.Temporary {
		head += "TEMPORARY "
	}
	head += kind + " "
	if opts.IfNotExists {
		if !ddl.SupportsIfExists {
			return "", &core.UnsupportedOperationError{Op: op + " if not exists", Dialect: d.Name, Node: name, Message: errMsgNoIfExists}
		}
		head += "IF NOT EXISTS "
	}

	g := newGenerator(d)
	b, err := g.lower(root)
	if err != nil {
		return "", err
	}
	p := newPrinter(opts.Pretty)
	p.write(head + g.tableName(name) + " AS")
	p.newline()
	if err := g.print(p, b); err != nil {
		return "", err
	}
	return p.String(), nil
}

// DropTable renders a DROP statement for name.
func DropTable(name string, ifExists bool, d *dialect.Dialect) (string, error) {
	ddl := d.DDL()
	stmt := "DROP " + createKeyword(ddl) + " "
	if ifExists {
		if !ddl.SupportsIfExists {
			return "", &core.UnsupportedOperationError{Op: "drop if exists", Dialect: d.Name, Node: name, Message: errMsgNoIfExists}
		}
		stmt += "IF EXISTS "
	}
	return stmt + (&generator{d: d}).tableName(name), nil
}

// InsertInto renders INSERT INTO sink SELECT ... for root. The columns of
// root must match the sink schema by name and position.
func InsertInto(sink, root *ir.Node, d *dialect.Dialect, opts Options) (string, error) {
	if sink == nil || sink.Op() != ir.OpTable {
		return "", &core.TypeMismatchError{Op: "insert", Node: describe(sink), Message: "sink must be an unbound table"}
	}
	if root == nil || !root.IsRelation() {
		return "", &core.TypeMismatchError{Op: "insert", Node: describe(root), Message: "expected a relation"}
	}
	want, got := sink.Schema().Names(), root.Schema().Names()
	if len(want) != len(got) {
		return "", &core.SchemaResolutionError{
			Ref:     strings.Join(got, ", "),
			Table:   sink.TableName(),
			Node:    ir.Describe(root),
			Message: fmt.Sprintf("query has %d columns, sink has %d", len(got), len(want)),
		}
	}
	for i := range want {
		if want[i] != got[i] {
			return "", &core.SchemaResolutionError{Ref: got[i], Table: sink.TableName(), Node: ir.Describe(root), Message: fmt.Sprintf("sink column %d is %q", i, want[i])}
		}
	}

	g := newGenerator(d)
	b, err := g.lower(root)
	if err != nil {
		return "", err
	}
	p := newPrinter(opts.Pretty)
	p.write("INSERT INTO " + g.tableName(sink.TableName()))
	p.newline()
	if err := g.print(p, b); err != nil {
		return "", err
	}
	return p.String(), nil
}

func describe(n *ir.Node) string {
	if n == nil {
		return "<nil>"
	}
	return ir.Describe(n)
}
