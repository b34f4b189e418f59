package ir

// Walk visits every node reachable from root in post-order, each unique
// node exactly once. Operands are visited before the nodes that use them,
// left to right. Walk stops at the first error returned by fn.
func Walk(root *Node, fn func(*Node) error) error {
	seen := make(map[*Node]bool)
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if seen[n] {
			return nil
		}
		seen[n] = true
		for _, arg := range n.args {
			if err := visit(arg); err != nil {
				return err
			}
		}
		return fn(n)
	}
	return visit(root)
}

// Equal reports whether a and b are structurally identical. Within one
// arena this is pointer identity; across arenas it compares digests.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.digest == b.digest
}

// Tables returns the table nodes reachable from root in post-order.
func Tables(root *Node) []*Node {
	var out []*Node
	_ = Walk(root, func(n *Node) error {
		if n.op == OpTable {
			out = append(out, n)
		}
		return nil
	})
	return out
}
