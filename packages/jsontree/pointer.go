package jsontree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrPointerNotFound = errors.New("pointer not found")

// EscapeSegment encodes a key for use inside a JSON pointer.
func EscapeSegment(segment string) string {
	return strings.ReplaceAll(strings.ReplaceAll(segment, "~", "~0"), "/", "~1")
}

// UnescapeSegment reverses EscapeSegment.
func UnescapeSegment(segment string) string {
	return strings.ReplaceAll(strings.ReplaceAll(segment, "~1", "/"), "~0", "~")
}

// SplitPointer splits a pointer into unescaped segments. Empty segments are
// dropped, so "" and "/" both yield no segments.
func SplitPointer(pointer string) []string {
	parts := strings.Split(pointer, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		segments = append(segments, UnescapeSegment(p))
	}
	return segments
}

// BuildPointer joins escaped segments into a pointer. An empty result becomes
// "/" when emptyAsSlash is set and leadingSlash is requested.
func BuildPointer(segments []string, leadingSlash, emptyAsSlash bool) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		if s == "" {
			continue
		}
		escaped = append(escaped, EscapeSegment(s))
	}
	if len(escaped) == 0 {
		if leadingSlash && emptyAsSlash {
			return "/"
		}
		return ""
	}
	joined := strings.Join(escaped, "/")
	if leadingSlash {
		return "/" + joined
	}
	return joined
}

// IsRoot reports whether pointer addresses the whole document.
func IsRoot(pointer string) bool {
	return pointer == "" || pointer == "/"
}

// Get resolves pointer against root.
func Get(root *Node, pointer string) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	if IsRoot(pointer) {
		return root, true
	}

	current := root
	for _, seg := range SplitPointer(pointer) {
		next, ok := child(current, seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func child(n *Node, seg string) (*Node, bool) {
	switch n.Kind {
	case KindObject:
		return n.Member(seg)
	case KindArray:
		idx, ok := ParseIndex(seg)
		if !ok || idx >= len(n.Items) {
			return nil, false
		}
		return n.Items[idx], true
	default:
		return nil, false
	}
}

// ParseIndex parses a non-negative array index segment.
func ParseIndex(seg string) (int, bool) {
	idx, err := strconv.Atoi(seg)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// Set writes value at pointer and returns the resulting root. A root pointer
// replaces the whole document. Missing object members are created; array
// indexes must already exist.
func Set(root *Node, pointer string, value *Node) (*Node, error) {
	if IsRoot(pointer) {
		return value, nil
	}
	if root == nil {
		return nil, fmt.Errorf("%w: %s", ErrPointerNotFound, pointer)
	}

	segments := SplitPointer(pointer)
	if len(segments) == 0 {
		return value, nil
	}
	parent := root
	for _, seg := range segments[:len(segments)-1] {
		next, ok := child(parent, seg)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPointerNotFound, pointer)
		}
		parent = next
	}

	last := segments[len(segments)-1]
	switch parent.Kind {
	case KindObject:
		parent.SetMember(last, value)
	case KindArray:
		idx, ok := ParseIndex(last)
		if !ok || idx >= len(parent.Items) {
			return nil, fmt.Errorf("%w: %s", ErrPointerNotFound, pointer)
		}
		parent.Items[idx] = value
	default:
		return nil, fmt.Errorf("%w: %s", ErrPointerNotFound, pointer)
	}
	return root, nil
}

// VisitFunc is called for every node reached by Traverse.
type VisitFunc func(path string, node *Node)

// Traverse walks the tree depth-first in pre-order. Every member and item is
// visited with its pointer before its own children. A scalar root is visited
// once with the starting path.
func Traverse(node *Node, path string, fn VisitFunc) {
	if node == nil {
		return
	}
	if !node.IsContainer() {
		fn(path, node)
		return
	}
	walk(node, path, fn)
}

func walk(node *Node, path string, fn VisitFunc) {
	switch node.Kind {
	case KindObject:
		for _, m := range node.Members {
			p := path + "/" + EscapeSegment(m.Key)
			fn(p, m.Value)
			if m.Value.IsContainer() {
				walk(m.Value, p, fn)
			}
		}
	case KindArray:
		for i, item := range node.Items {
			p := path + "/" + strconv.Itoa(i)
			fn(p, item)
			if item.IsContainer() {
				walk(item, p, fn)
			}
		}
	}
}
