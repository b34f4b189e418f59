package sqlgen

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/ir"
)

// generator lowers one relation graph to SQL for one dialect. Table
// aliases t0, t1, ... are handed out as relations are lowered, leaves
// first and left before right.
type generator struct {
	d       *dialect.Dialect
	aliases int
}

func newGenerator(d *dialect.Dialect) *generator {
	return &generator{d: d}
}

func (g *generator) alias() string {
	a := "t" + strconv.Itoa(g.aliases)
	g.aliases++
	return a
}

// column is one output column of a block.
type column struct {
	name string
	expr frag
}

type limitClause struct {
	n, offset int64
}

// block is one SELECT statement under construction. Relations are merged
// into the block of their input until SQL evaluation order would change
// the result; then the input is wrapped as a subquery.
type block struct {
	from     fromItem
	cols     []column
	distinct bool
	where    []string
	groupBy  []string
	having   []string
	qualify  []string
	orderBy  []string
	limit    *limitClause
	grouped  bool
	bare     bool // no clauses; cols are the plain columns of from
}

func (b *block) clone() *block {
	c := *b
	c.cols = slices.Clone(b.cols)
	c.where = slices.Clone(b.where)
	c.groupBy = slices.Clone(b.groupBy)
	c.having = slices.Clone(b.having)
	c.qualify = slices.Clone(b.qualify)
	c.orderBy = slices.Clone(b.orderBy)
	c.bare = false
	return &c
}

func (b *block) lookup(name string) (column, bool) {
	for _, c := range b.cols {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

// windowed reports whether any output column computes a window function.
func (b *block) windowed() bool {
	for _, c := range b.cols {
		if c.expr.window {
			return true
		}
	}
	return false
}

type fromItem interface{ isFrom() }

type tableRef struct{ name, alias string }

type subquery struct {
	body  *block
	alias string
}

type joinRef struct {
	kind        ir.JoinKind
	left, right fromItem
	on          []string
}

type tvfRef struct{ sql, alias string }

func (tableRef) isFrom() {}
func (subquery) isFrom() {}
func (joinRef) isFrom()  {}
func (tvfRef) isFrom()   {}

// tableName quotes each part of a dotted table name.
func (g *generator) tableName(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = g.d.QuoteIdentifierIfNeeded(p)
	}
	return strings.Join(parts, ".")
}

func (g *generator) ref(alias, name string) frag {
	return frag{sql: alias + "." + g.d.QuoteIdentifierIfNeeded(name), prec: core.PrecedencePostfix, column: name}
}

func (g *generator) refs(alias string, names []string) []column {
	cols := make([]column, len(names))
	for i, name := range names {
		cols[i] = column{name: name, expr: g.ref(alias, name)}
	}
	return cols
}

// wrap turns b into a subquery and returns a block selecting from it.
func (g *generator) wrap(b *block) *block {
	alias := g.alias()
	names := make([]string, len(b.cols))
	for i, c := range b.cols {
		names[i] = c.name
	}
	return &block{from: subquery{body: b, alias: alias}, cols: g.refs(alias, names)}
}

func (g *generator) lower(rel *ir.Node) (*block, error) {
	switch rel.Op() {
	case ir.OpTable:
		alias := g.alias()
		return &block{
			from: tableRef{name: g.tableName(rel.TableName()), alias: alias},
			cols: g.refs(alias, rel.Schema().Names()),
			bare: true,
		}, nil
	case ir.OpProject:
		return g.project(rel)
	case ir.OpFilter:
		return g.filter(rel)
	case ir.OpAggregate:
		return g.aggregateRel(rel)
	case ir.OpDistinct:
		return g.distinct(rel)
	case ir.OpSort:
		return g.sort(rel)
	case ir.OpLimit:
		return g.limit(rel)
	case ir.OpJoin:
		return g.join(rel)
	case ir.OpTumble, ir.OpHop:
		return g.windowTVF(rel)
	}
	return nil, &core.TypeMismatchError{Op: rel.Op().String(), Node: ir.Describe(rel), Message: "not a relation"}
}

// items renders named expressions against the block computing their input.
func (g *generator) items(rel *ir.Node, exprs []*ir.Node, names []string, b *block) ([]column, error) {
	sc := scope{rel: b}
	cols := make([]column, len(exprs))
	for i, e := range exprs {
		f, err := g.expr(e, sc)
		if err != nil {
			return nil, err
		}
		cols[i] = column{name: names[i], expr: f}
	}
	return cols, nil
}

func (g *generator) project(rel *ir.Node) (*block, error) {
	p := rel.Parent()
	b, err := g.lower(p)
	if err != nil {
		return nil, err
	}
	names := rel.Schema().Names()
	cols, err := g.items(p, rel.Items(), names, b)
	if err != nil {
		return nil, err
	}
	if b.distinct || (anyWindow(cols) && (b.windowed() || len(b.qualify) > 0 || b.limit != nil)) {
		b = g.wrap(b)
		if cols, err = g.items(p, rel.Items(), names, b); err != nil {
			return nil, err
		}
	}
	b = b.clone()
	b.cols = cols
	return b, nil
}

func anyWindow(cols []column) bool {
	for _, c := range cols {
		if c.expr.window {
			return true
		}
	}
	return false
}

// conjuncts renders predicates for an AND list.
func (g *generator) conjuncts(preds []*ir.Node, sc scope) ([]string, bool, error) {
	out := make([]string, len(preds))
	var win bool
	for i, e := range preds {
		f, err := g.expr(e, sc)
		if err != nil {
			return nil, false, err
		}
		out[i] = paren(f, core.PrecedenceAnd, false)
		win = win || f.window
	}
	return out, win, nil
}

func (g *generator) filter(rel *ir.Node) (*block, error) {
	p := rel.Parent()
	b, err := g.lower(p)
	if err != nil {
		return nil, err
	}
	if b.distinct || b.limit != nil {
		b = g.wrap(b)
	}
	preds, win, err := g.conjuncts(rel.Predicates(), scope{p: b})
	if err != nil {
		return nil, err
	}

	// Predicates over window results run after the windows are computed.
	if win || b.windowed() || len(b.qualify) > 0 {
		if g.d.SupportsQualify() {
			b = b.clone()
			b.qualify = append(b.qualify, preds...)
			return b, nil
		}
		b = g.wrap(b)
		if preds, win, err = g.conjuncts(rel.Predicates(), scope{p: b}); err != nil {
			return nil, err
		}
		if win {
			return nil, &core.UnsupportedOperationError{Op: "filter on a window function", Dialect: g.d.Name, Node: ir.Describe(rel), Message: "dialect has no QUALIFY clause"}
		}
	}
	b = b.clone()
	if b.grouped {
		b.having = append(b.having, preds...)
	} else {
		b.where = append(b.where, preds...)
	}
	return b, nil
}

func (g *generator) aggregateRel(rel *ir.Node) (*block, error) {
	p := rel.Parent()
	b, err := g.lower(p)
	if err != nil {
		return nil, err
	}
	if b.grouped || b.distinct || b.limit != nil || b.windowed() || len(b.qualify) > 0 {
		b = g.wrap(b)
	}
	sc := scope{p: b}

	keys, metrics := rel.GroupKeys(), rel.Metrics()
	names := rel.Schema().Names()
	cols, err := g.items(p, append(keys, metrics...), names, b)
	if err != nil {
		return nil, err
	}
	having, _, err := g.conjuncts(rel.Having(), sc)
	if err != nil {
		return nil, err
	}

	b = b.clone()
	b.cols = cols
	b.grouped = true
	b.orderBy = nil
	b.groupBy = nil
	for _, c := range cols[:len(keys)] {
		b.groupBy = append(b.groupBy, c.expr.sql)
	}
	b.having = having
	return b, nil
}

func (g *generator) distinct(rel *ir.Node) (*block, error) {
	if !g.d.SupportsNativeDistinct() {
		return nil, &core.UnsupportedOperationError{Op: rel.Op().String(), Dialect: g.d.Name, Node: ir.Describe(rel), Message: "dialect has no native DISTINCT"}
	}
	b, err := g.lower(rel.Parent())
	if err != nil {
		return nil, err
	}
	if b.distinct {
		return b, nil
	}
	if b.limit != nil || len(b.orderBy) > 0 {
		b = g.wrap(b)
	}
	b = b.clone()
	b.distinct = true
	return b, nil
}

func (g *generator) sort(rel *ir.Node) (*block, error) {
	p := rel.Parent()
	b, err := g.lower(p)
	if err != nil {
		return nil, err
	}
	if b.limit != nil || b.distinct {
		b = g.wrap(b)
	}
	sc := scope{p: b}
	keys := rel.SortKeys()
	order := make([]string, len(keys))
	for i, k := range keys {
		f, err := g.expr(k.Expr, sc)
		if err != nil {
			return nil, err
		}
		dir := " ASC"
		if k.Desc {
			dir = " DESC"
		}
		order[i] = f.sql + dir
	}
	b = b.clone()
	b.orderBy = order
	return b, nil
}

func (g *generator) limit(rel *ir.Node) (*block, error) {
	b, err := g.lower(rel.Parent())
	if err != nil {
		return nil, err
	}
	if b.limit != nil {
		b = g.wrap(b)
	}
	n, offset := rel.Limit()
	b = b.clone()
	b.limit = &limitClause{n: n, offset: offset}
	return b, nil
}

func (g *generator) join(rel *ir.Node) (*block, error) {
	l, r := rel.Left(), rel.Right()
	bl, err := g.lower(l)
	if err != nil {
		return nil, err
	}
	// A bare join on the left extends the join chain.
	if !bl.bare {
		bl = g.wrap(bl)
	}
	br, err := g.lower(r)
	if err != nil {
		return nil, err
	}
	if !br.bare || !isTable(br) {
		br = g.wrap(br)
	}

	on, _, err := g.conjuncts(rel.Predicates(), scope{l: bl, r: br})
	if err != nil {
		return nil, err
	}
	names := rel.Schema().Names()
	cols := make([]column, 0, len(names))
	for i, c := range append(slices.Clone(bl.cols), br.cols...) {
		cols = append(cols, column{name: names[i], expr: c.expr})
	}
	return &block{
		from: joinRef{kind: rel.JoinKind(), left: bl.from, right: br.from, on: on},
		cols: cols,
		bare: true,
	}, nil
}

func isTable(b *block) bool {
	_, ok := b.from.(tableRef)
	return ok
}

// windowTVF lowers tumbling and hopping windows to the dialect's
// table-valued window functions.
func (g *generator) windowTVF(rel *ir.Node) (*block, error) {
	if !g.d.SupportsWindowTVF() {
		return nil, &core.UnsupportedOperationError{Op: rel.Op().String(), Dialect: g.d.Name, Node: ir.Describe(rel), Message: "dialect has no window table functions"}
	}
	p := rel.Parent()
	var input string
	if p.Op() == ir.OpTable {
		input = g.tableName(p.TableName())
	} else {
		b, err := g.lower(p)
		if err != nil {
			return nil, err
		}
		sub := newPrinter(false)
		if err := sub.parens(func() error { return g.print(sub, b) }); err != nil {
			return nil, err
		}
		input = sub.String()
	}

	timeCol := g.d.QuoteIdentifierIfNeeded(rel.TimeCol())
	size := rel.WindowSize()
	var (
		sql string
		err error
	)
	if rel.Op() == ir.OpTumble {
		sql, err = g.d.Call("tumble", input, timeCol, g.d.IntervalLiteral(size.Value, size.Unit))
	} else {
		slide := rel.WindowSlide()
		sql, err = g.d.Call("hop", input, timeCol,
			g.d.IntervalLiteral(slide.Value, slide.Unit),
			g.d.IntervalLiteral(size.Value, size.Unit))
	}
	if err != nil {
		return nil, attribute(err, rel)
	}
	alias := g.alias()
	return &block{from: tvfRef{sql: sql, alias: alias}, cols: g.refs(alias, rel.Schema().Names())}, nil
}

// print lays out b as a SELECT statement.
func (g *generator) print(p *printer, b *block) error {
	kw := "SELECT"
	if b.distinct {
		kw += " DISTINCT"
	}
	items := make([]string, len(b.cols))
	for i, c := range b.cols {
		items[i] = g.selectItem(c)
	}
	p.clause(kw, items, false)

	p.newline()
	p.write("FROM ")
	if err := g.printFrom(p, b.from); err != nil {
		return err
	}
	if len(b.where) > 0 {
		p.newline()
		p.clause("WHERE", b.where, true)
	}
	if len(b.groupBy) > 0 {
		p.newline()
		p.clause("GROUP BY", b.groupBy, false)
	}
	if len(b.having) > 0 {
		p.newline()
		p.clause("HAVING", b.having, true)
	}
	if len(b.qualify) > 0 {
		p.newline()
		p.clause("QUALIFY", b.qualify, true)
	}
	if len(b.orderBy) > 0 {
		p.newline()
		p.clause("ORDER BY", b.orderBy, false)
	}
	if b.limit != nil {
		p.newline()
		p.write(fmt.Sprintf("LIMIT %d", b.limit.n))
		if b.limit.offset > 0 {
			p.write(fmt.Sprintf(" OFFSET %d", b.limit.offset))
		}
	}
	return nil
}

func (g *generator) selectItem(c column) string {
	if c.expr.column == c.name {
		return c.expr.sql
	}
	return c.expr.sql + " AS " + g.d.QuoteIdentifierIfNeeded(c.name)
}

func (g *generator) printFrom(p *printer, item fromItem) error {
	switch f := item.(type) {
	case tableRef:
		p.write(f.name + " AS " + f.alias)
	case tvfRef:
		p.write(f.sql + " AS " + f.alias)
	case subquery:
		if err := p.parens(func() error { return g.print(p, f.body) }); err != nil {
			return err
		}
		p.write(" AS " + f.alias)
	case joinRef:
		if err := g.printFrom(p, f.left); err != nil {
			return err
		}
		p.newline()
		if f.kind == ir.JoinInner && len(f.on) == 0 {
			p.write("CROSS JOIN ")
			return g.printFrom(p, f.right)
		}
		p.write(f.kind.String() + " JOIN ")
		if err := g.printFrom(p, f.right); err != nil {
			return err
		}
		if len(f.on) == 0 {
			p.write(" ON TRUE")
			return nil
		}
		p.write(" ON " + strings.Join(f.on, " AND "))
	default:
		return fmt.Errorf("unknown from item %T", item)
	}
	return nil
}
