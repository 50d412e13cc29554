// Package jsontree provides a mutable, order-preserving JSON tree.
//
// Templates are parsed into a tree of tagged Nodes so that placeholders can be
// located by JSON pointer, array elements can be cloned, and sub-trees can be
// replaced before serializing back to compact JSON text.
//
// The package handles:
//   - Parsing JSON text (via gjson) into Nodes, keeping object member order
//   - JSON pointer navigation with ~0 / ~1 segment escaping
//   - Depth-first pre-order traversal with a visitor callback
//   - Replacing the node at a pointer, including the root
//   - Compact and pretty serialization
package jsontree
