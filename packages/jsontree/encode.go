package jsontree

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// Compact serializes the node as compact JSON text.
func (n *Node) Compact() string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node) {
	if n == nil {
		sb.WriteString("null")
		return
	}
	switch n.Kind {
	case KindBool:
		sb.WriteString(strconv.FormatBool(n.Bool))
	case KindInt:
		sb.WriteString(strconv.FormatInt(n.Int, 10))
	case KindFloat:
		sb.WriteString(FormatFloat(n.Float))
	case KindString:
		WriteString(sb, n.Str)
	case KindArray:
		sb.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeNode(sb, item)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, m := range n.Members {
			if i > 0 {
				sb.WriteByte(',')
			}
			WriteString(sb, m.Key)
			sb.WriteByte(':')
			writeNode(sb, m.Value)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("null")
	}
}

// FormatFloat renders a float with invariant formatting. NaN and infinities
// have no JSON form and are written as null.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteString writes s as a quoted JSON string.
func WriteString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				sb.WriteString(`\"`)
			case '\\':
				sb.WriteString(`\\`)
			case '\n':
				sb.WriteString(`\n`)
			case '\r':
				sb.WriteString(`\r`)
			case '\t':
				sb.WriteString(`\t`)
			default:
				if c < 0x20 {
					sb.WriteString(`\u00`)
					sb.WriteByte(hexDigits[c>>4])
					sb.WriteByte(hexDigits[c&0xF])
				} else {
					sb.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			sb.WriteString(`�`)
		} else {
			sb.WriteString(s[i : i+size])
		}
		i += size
	}
	sb.WriteByte('"')
}
