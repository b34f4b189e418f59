package ir

import (
	"slices"
	"sync"

	"github.com/leapstack-labs/xsql/pkg/core"
)

// node flags summarize what a scalar subtree contains.
const (
	flagAggregate uint8 = 1 << iota // an aggregate not consumed by a window
	flagAnalytic                    // a ranking function not consumed by a window
	flagWindow                      // a window function
)

// Arena owns hash-consed nodes. Insertion is guarded by a mutex, so one
// arena may be shared by concurrent graph builders.
type Arena struct {
	mu    sync.Mutex
	nodes []*Node
	index map[string]*Node
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{index: make(map[string]*Node)}
}

// Len returns the number of unique nodes in the arena.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.nodes)
}

// Node returns the node with the given ID, or false when the arena holds no
// such node.
func (a *Arena) Node(id int) (*Node, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id < 0 || id >= len(a.nodes) {
		return nil, false
	}
	return a.nodes[id], true
}

// make dereferences, type-checks and interns a node.
func (a *Arena) make(op Op, args []*Node, at attrs, name string) (*Node, error) {
	args, err := a.deref(op, args)
	if err != nil {
		return nil, err
	}
	dtype, schema, err := derive(op, args, &at)
	if err != nil {
		return nil, err
	}
	digest := hashWithDomain(nodeDomain, []byte(structuralKey(op, args, &at, name)))

	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.index[digest]; ok {
		return n, nil
	}
	n := &Node{
		id:     len(a.nodes),
		op:     op,
		args:   args,
		at:     at,
		name:   name,
		dtype:  dtype,
		schema: schema,
		digest: digest,
		fl:     computeFlags(op, args),
	}
	a.nodes = append(a.nodes, n)
	a.index[digest] = n
	return n, nil
}

// Rebuild returns n with its operands replaced by args. When every operand
// is unchanged, n itself is returned.
func (a *Arena) Rebuild(n *Node, args []*Node) (*Node, error) {
	if slices.Equal(n.args, args) {
		return n, nil
	}
	return a.make(n.op, slices.Clone(args), n.at, n.name)
}

// Alias names a scalar node. Naming a node changes its identity.
func (a *Arena) Alias(n *Node, name string) (*Node, error) {
	if n.op.IsRelation() {
		return nil, &core.TypeMismatchError{Op: "alias", Node: Describe(n), Message: "relations cannot be named"}
	}
	if n.name == name {
		return n, nil
	}
	return a.make(n.op, n.args, n.at, name)
}

// WithFrame returns a window node with its frame replaced.
func (a *Arena) WithFrame(w *Node, f *Frame) (*Node, error) {
	if w.op != OpWindow {
		return nil, &core.TypeMismatchError{Op: "with_frame", Node: Describe(w), Message: "not a window function"}
	}
	at := w.at
	at.frame = f
	return a.make(OpWindow, w.args, at, w.name)
}

// Must panics if err is non-nil and returns n otherwise.
// Intended for tests and static graph fixtures.
func Must(n *Node, err error) *Node {
	if err != nil {
		panic(err)
	}
	return n
}

// computeFlags derives the content flags of a scalar from its operands.
func computeFlags(op Op, args []*Node) uint8 {
	switch {
	case op == OpWindow:
		f := flagWindow
		for _, arg := range args[1:] {
			f |= arg.fl
		}
		return f
	case op.IsAggregate():
		return flagAggregate
	case op.IsAnalytic():
		return flagAnalytic
	case op.IsRelation(), op == OpColumn:
		return 0
	}
	var f uint8
	for _, arg := range args {
		if !arg.op.IsRelation() {
			f |= arg.fl
		}
	}
	return f
}

// HasAggregate reports whether the scalar contains an aggregate outside any window.
func (n *Node) HasAggregate() bool { return n.fl&flagAggregate != 0 }

// HasWindow reports whether the scalar contains a window function.
func (n *Node) HasWindow() bool { return n.fl&flagWindow != 0 }

// HasAnalytic reports whether the scalar contains a ranking function outside any window.
func (n *Node) HasAnalytic() bool { return n.fl&flagAnalytic != 0 }
