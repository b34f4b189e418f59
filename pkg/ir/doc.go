// Package ir implements the dialect-agnostic expression graph.
//
// Nodes are immutable and hash-consed inside an Arena: constructing two
// structurally identical nodes returns the same *Node. Every constructor
// type-checks its operands and fails with a core.TypeMismatchError (or a
// schema, window or watermark error) at construction time.
//
// Relations (tables, projections, filters, ...) carry an output Schema.
// Scalars carry a DataType. Column references name the relation they read
// from; consumers dereference them onto their immediate input so that every
// reference in a consumer points at that input (or, for joins, one side).
package ir
