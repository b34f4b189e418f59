package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/xsql/pkg/core"
)

// JoinKind is the kind of a join.
type JoinKind int

// Join kinds.
const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinOuter
)

// String returns the SQL keyword of the join kind.
func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinOuter:
		return "FULL OUTER"
	default:
		return "INNER"
	}
}

// attrs is the non-operand payload of a node.
type attrs struct {
	table     string
	schema    *Schema
	source    *Source
	watermark *Watermark
	column    string
	value     any
	dtype     DataType
	field     string
	unit      core.TimeUnit
	count     int
	having    int
	desc      []bool
	frame     *Frame
	limit     int64
	offset    int64
	join      JoinKind
	timeCol   string
	size      Interval
	slide     Interval
}

// Node is an immutable, hash-consed expression graph node.
type Node struct {
	id     int
	op     Op
	args   []*Node
	at     attrs
	name   string
	dtype  DataType
	schema *Schema
	digest string
	fl     uint8
}

// ID returns the dense arena index of the node.
func (n *Node) ID() int { return n.id }

// Op returns the operator.
func (n *Node) Op() Op { return n.op }

// Args returns a copy of the ordered operands.
func (n *Node) Args() []*Node { return append([]*Node(nil), n.args...) }

// Arg returns the i-th operand.
func (n *Node) Arg(i int) *Node { return n.args[i] }

// NumArgs returns the number of operands.
func (n *Node) NumArgs() int { return len(n.args) }

// UserName returns the user-assigned name, if any.
func (n *Node) UserName() string { return n.name }

// Type returns the result type of a scalar node.
func (n *Node) Type() DataType { return n.dtype }

// Schema returns the output schema of a relation node, or nil for scalars.
func (n *Node) Schema() *Schema { return n.schema }

// IsRelation reports whether the node is table-shaped.
func (n *Node) IsRelation() bool { return n.op.IsRelation() }

// Digest returns the structural SHA-256 digest of the node. It is stable
// across arenas and processes.
func (n *Node) Digest() string { return n.digest }

// TableName returns the name of an unbound table node.
func (n *Node) TableName() string { return n.at.table }

// Source returns the streaming source of a table node.
func (n *Node) Source() *Source { return n.at.source }

// Watermark returns the watermark of a table node.
func (n *Node) Watermark() *Watermark { return n.at.watermark }

// ColumnName returns the referenced column name of a column node.
func (n *Node) ColumnName() string { return n.at.column }

// Value returns the literal value: nil, bool, int64, float64, string or Interval.
func (n *Node) Value() any { return n.at.value }

// Target returns the target type of a cast.
func (n *Node) Target() DataType { return n.at.dtype }

// Field returns the extracted field of an extract node.
func (n *Node) Field() string { return n.at.field }

// Unit returns the epoch unit of a timestamp_from_unix node.
func (n *Node) Unit() core.TimeUnit { return n.at.unit }

// Limit returns the row count and offset of a limit node.
func (n *Node) Limit() (int64, int64) { return n.at.limit, n.at.offset }

// JoinKind returns the kind of a join node.
func (n *Node) JoinKind() JoinKind { return n.at.join }

// TimeCol returns the descriptor column of a tumble or hop node.
func (n *Node) TimeCol() string { return n.at.timeCol }

// WindowSize returns the size of a tumble or hop window.
func (n *Node) WindowSize() Interval { return n.at.size }

// WindowSlide returns the slide of a hop window.
func (n *Node) WindowSlide() Interval { return n.at.slide }

// Parent returns the input relation of a single-input relation.
func (n *Node) Parent() *Node {
	if n.op == OpTable || len(n.args) == 0 {
		return nil
	}
	return n.args[0]
}

// Items returns the projected expressions of a project node.
func (n *Node) Items() []*Node {
	return append([]*Node(nil), n.args[1:]...)
}

// Predicates returns the predicates of a filter or join node.
func (n *Node) Predicates() []*Node {
	switch n.op {
	case OpFilter:
		return append([]*Node(nil), n.args[1:]...)
	case OpJoin:
		return append([]*Node(nil), n.args[2:]...)
	}
	return nil
}

// Left returns the left input of a join.
func (n *Node) Left() *Node { return n.args[0] }

// Right returns the right input of a join.
func (n *Node) Right() *Node { return n.args[1] }

// GroupKeys returns the grouping keys of an aggregate node.
func (n *Node) GroupKeys() []*Node {
	return append([]*Node(nil), n.args[1:1+n.at.count]...)
}

// Metrics returns the aggregate expressions of an aggregate node.
func (n *Node) Metrics() []*Node {
	end := len(n.args) - n.at.having
	return append([]*Node(nil), n.args[1+n.at.count:end]...)
}

// Having returns the HAVING predicates of an aggregate node.
func (n *Node) Having() []*Node {
	return append([]*Node(nil), n.args[len(n.args)-n.at.having:]...)
}

// SortKeys returns the keys of a sort node.
func (n *Node) SortKeys() []SortKey {
	keys := make([]SortKey, len(n.args)-1)
	for i := range keys {
		keys[i] = SortKey{Expr: n.args[i+1], Desc: n.at.desc[i]}
	}
	return keys
}

// Where returns the optional filter of an aggregate function.
func (n *Node) Where() *Node {
	if !n.op.IsAggregate() {
		return nil
	}
	// args[0] is the value, or the relation for count_star
	if len(n.args) > 1 {
		return n.args[1]
	}
	return nil
}

// Cases returns the branches of a searched or simple case node.
func (n *Node) Cases() (whens, thens []*Node) {
	start := 0
	if n.op == OpSimpleCase {
		start = 1
	}
	k := n.at.count
	return append([]*Node(nil), n.args[start:start+k]...), append([]*Node(nil), n.args[start+k:start+2*k]...)
}

// Default returns the explicit default of a case node, or nil.
func (n *Node) Default() *Node {
	start := 0
	if n.op == OpSimpleCase {
		start = 1
	}
	if len(n.args) > start+2*n.at.count {
		return n.args[len(n.args)-1]
	}
	return nil
}

// Func returns the wrapped function of a window node.
func (n *Node) Func() *Node { return n.args[0] }

// Window returns the window specification of a window node.
func (n *Node) Window() WindowSpec {
	p := n.at.count
	spec := WindowSpec{
		PartitionBy: append([]*Node(nil), n.args[1:1+p]...),
		Frame:       n.at.frame,
	}
	for i, d := range n.at.desc {
		spec.OrderBy = append(spec.OrderBy, SortKey{Expr: n.args[1+p+i], Desc: d})
	}
	return spec
}

// key renders the structural identity of a node under construction.
// Operands contribute their digests, so the key is arena-independent.
func structuralKey(op Op, args []*Node, at *attrs, name string) string {
	var b strings.Builder
	// Native ranking calls share their function key with the IR op.
	if op.IsNativeRank() {
		b.WriteString("native_")
	}
	b.WriteString(op.String())
	b.WriteByte('|')
	b.WriteString(strconv.Quote(name))
	for _, a := range args {
		b.WriteByte('|')
		b.WriteString(a.digest)
	}
	b.WriteString("|{")
	at.writeKey(&b)
	b.WriteByte('}')
	return b.String()
}

func (at *attrs) writeKey(b *strings.Builder) {
	kv := func(k string, v string) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte(';')
	}
	if at.table != "" {
		kv("table", strconv.Quote(at.table))
	}
	if at.schema != nil {
		kv("schema", strconv.Quote(at.schema.String()))
	}
	if s := at.source; s != nil {
		kv("source", strconv.Quote(s.Connector)+","+strconv.Quote(s.Topic)+","+strconv.Quote(s.Format))
		for _, k := range s.PropertyKeys() {
			kv("prop", strconv.Quote(k)+":"+strconv.Quote(s.Properties[k]))
		}
	}
	if w := at.watermark; w != nil {
		kv("watermark", strconv.Quote(w.TimeCol)+","+w.AllowedDelay.String())
	}
	if at.column != "" {
		kv("column", strconv.Quote(at.column))
	}
	if at.value != nil {
		kv("value", fmt.Sprintf("%T:%v", at.value, at.value))
	}
	kv("dtype", at.dtype.String())
	if at.field != "" {
		kv("field", at.field)
	}
	if at.unit != core.TimeUnitNone {
		kv("unit", at.unit.String())
	}
	kv("count", strconv.Itoa(at.count))
	if at.having > 0 {
		kv("having", strconv.Itoa(at.having))
	}
	if len(at.desc) > 0 {
		kv("desc", fmt.Sprint(at.desc))
	}
	if at.frame != nil {
		kv("frame", at.frame.String())
	}
	if at.limit != 0 || at.offset != 0 {
		kv("limit", fmt.Sprintf("%d,%d", at.limit, at.offset))
	}
	kv("join", strconv.Itoa(int(at.join)))
	if at.timeCol != "" {
		kv("timecol", strconv.Quote(at.timeCol))
		kv("size", at.size.String())
		kv("slide", at.slide.String())
	}
}

// hashWithDomain computes SHA256(domain || 0x00 || data) for domain separation.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

const nodeDomain = "xsql/node/v1"
