package criteria

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/hitplate/packages/convert"
	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
)

// FloatTolerance is the absolute tolerance of Float equality.
const FloatTolerance = 1e-6

// Result is the verdict of an evaluation. A non-empty Reason means the
// evaluation failed rather than merely being false.
type Result struct {
	Value  bool
	Reason string
	Trace  []Resolution
}

func (r Result) Failed() bool {
	return r.Reason != ""
}

// Passed reports a true verdict.
func (r Result) Passed() bool {
	return r.Value && !r.Failed()
}

// Detail renders the verdict and the accessor resolutions, one per line.
func (r Result) Detail() string {
	var sb strings.Builder
	switch {
	case r.Failed():
		sb.WriteString("failed: " + r.Reason)
	case r.Value:
		sb.WriteString("passed")
	default:
		sb.WriteString("not satisfied")
	}
	for _, res := range r.Trace {
		sb.WriteString("\n  ")
		sb.WriteString(res.String())
	}
	return sb.String()
}

// Resolution records how one accessor was resolved.
type Resolution struct {
	Accessor string
	Type     vartype.Type
	Value    any
	Reason   string
}

func (r Resolution) String() string {
	if r.Reason != "" {
		return fmt.Sprintf("%s: %s", r.Accessor, r.Reason)
	}
	return fmt.Sprintf("%s = %s (%s)", r.Accessor, convert.ToJSONText(r.Value, r.Type), r.Type)
}

// Evaluator evaluates criteria trees against the variables of a registry.
type Evaluator struct {
	registry *registry.Registry
	trace    []Resolution
}

func NewEvaluator(reg *registry.Registry) *Evaluator {
	return &Evaluator{registry: reg}
}

// Evaluate evaluates node and returns its verdict with the trace of every
// accessor resolved on the way.
func (e *Evaluator) Evaluate(node *Node) Result {
	e.trace = nil
	r := e.eval(node)
	r.Trace = e.trace
	return r
}

func (e *Evaluator) eval(node *Node) Result {
	if node == nil {
		return fail("expression is empty")
	}
	switch node.Kind {
	case NodeLogical:
		return e.evalLogical(node)
	case NodeNot:
		return e.evalNot(node)
	case NodeComparison:
		return e.evalComparison(node)
	case NodeBoolean:
		return e.evalBoolean(node)
	default:
		return fail("unknown node kind %s", node.Kind)
	}
}

func fail(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// evalLogical short-circuits AND on a false or failed left side and OR on a
// true left side. Otherwise the right side decides, reason included.
func (e *Evaluator) evalLogical(node *Node) Result {
	left := e.eval(node.Left)
	switch node.Op {
	case OpAnd:
		if !left.Value {
			return left
		}
	case OpOr:
		if left.Value {
			return left
		}
	default:
		return fail("unknown logical operator %s", node.Op)
	}
	return e.eval(node.Right)
}

func (e *Evaluator) evalNot(node *Node) Result {
	inner := e.eval(node.Inner)
	if inner.Failed() {
		return inner
	}
	return Result{Value: !inner.Value}
}

func (e *Evaluator) evalBoolean(node *Node) Result {
	value, t, reason := e.resolve(node.Accessor)
	if reason != "" {
		return fail("%s", reason)
	}
	if t.IsArray() || t.Kind() != vartype.KindBool {
		return fail("%s is %s, not Bool", node.Accessor, t)
	}
	b, ok := convert.FromValue(value, t).(bool)
	if !ok {
		return fail("%s is not a boolean value", node.Accessor)
	}
	return Result{Value: b}
}

func (e *Evaluator) evalComparison(node *Node) Result {
	value, t, reason := e.resolve(node.Accessor)
	if reason != "" {
		return fail("%s", reason)
	}
	if t.IsArray() {
		return fail("cannot compare %s of type %s, use an index or Count", node.Accessor, t)
	}

	if node.Operator == OpLike {
		return Result{Value: like(text(value, t), node.Literal.Text)}
	}

	cmp, err := compare(value, t, node.Literal)
	if err != nil {
		return fail("%s %s %s: %v", node.Accessor, node.Operator, node.Literal, err)
	}

	switch node.Operator {
	case OpEqual:
		return Result{Value: cmp == 0}
	case OpNotEqual:
		return Result{Value: cmp != 0}
	}

	if t.Kind() == vartype.KindBool {
		return fail("operator %s is not supported for Bool", node.Operator)
	}
	switch node.Operator {
	case OpGreater:
		return Result{Value: cmp > 0}
	case OpLess:
		return Result{Value: cmp < 0}
	case OpGreaterOrEqual:
		return Result{Value: cmp >= 0}
	case OpLessOrEqual:
		return Result{Value: cmp <= 0}
	default:
		return fail("unknown operator %s", node.Operator)
	}
}

// resolve looks up the accessor base in the registry and applies every
// segment. A non-empty reason means the accessor could not be resolved.
func (e *Evaluator) resolve(a *Accessor) (value any, t vartype.Type, reason string) {
	defer func() {
		res := Resolution{Accessor: a.String(), Type: t, Value: value, Reason: reason}
		e.trace = append(e.trace, res)
	}()

	v, ok := e.registry.Get(a.Name)
	if !ok {
		return nil, t, fmt.Sprintf("variable %s does not exist", a.Name)
	}
	value, t = v.Value, v.Type

	for _, seg := range a.Segments {
		switch seg.Kind {
		case SegmentProperty:
			if !strings.EqualFold(seg.Property, "Count") {
				return nil, t, fmt.Sprintf("property %s is not supported on %s", seg.Property, a)
			}
			if value == nil {
				return nil, t, fmt.Sprintf("cannot take Count of null in %s", a)
			}
			switch val := value.(type) {
			case []any:
				value = int64(len(val))
			case string:
				value = int64(utf8.RuneCountInString(val))
			default:
				return nil, t, fmt.Sprintf("%s has no Count in %s", t, a)
			}
			t = vartype.Int
		case SegmentIndex:
			if seg.Index < 0 {
				return nil, t, fmt.Sprintf("negative index %d in %s", seg.Index, a)
			}
			if value == nil {
				return nil, t, fmt.Sprintf("cannot index null in %s", a)
			}
			switch val := value.(type) {
			case []any:
				if seg.Index >= len(val) {
					return nil, t, fmt.Sprintf("index %d out of range in %s (length %d)", seg.Index, a, len(val))
				}
				value = val[seg.Index]
				if t.IsArray() {
					t = t.Elem()
				}
			case string:
				runes := []rune(val)
				if seg.Index >= len(runes) {
					return nil, t, fmt.Sprintf("index %d out of range in %s (length %d)", seg.Index, a, len(runes))
				}
				value, t = string(runes[seg.Index]), vartype.String
			default:
				return nil, t, fmt.Sprintf("%s cannot be indexed in %s", t, a)
			}
		default:
			return nil, t, fmt.Sprintf("unknown accessor segment in %s", a)
		}
	}

	if value == nil {
		return nil, t, fmt.Sprintf("%s is null", a)
	}
	return value, t, ""
}

// compare returns -1, 0 or 1 ordering value against the literal, read as
// the declared type t.
func compare(value any, t vartype.Type, lit Literal) (int, error) {
	value = convert.FromValue(value, t)

	switch t.Kind() {
	case vartype.KindBool:
		b, ok := lit.Value.(bool)
		if !ok {
			return 0, fmt.Errorf("%s is not a boolean", lit)
		}
		if value.(bool) == b {
			return 0, nil
		}
		return 1, nil
	case vartype.KindInt:
		switch l := lit.Value.(type) {
		case int64:
			return cmpOrdered(value.(int64), l), nil
		case float64:
			return cmpFloat(float64(value.(int64)), l), nil
		}
		return 0, fmt.Errorf("%s is not an integer", lit)
	case vartype.KindFloat:
		switch l := lit.Value.(type) {
		case int64:
			return cmpFloat(value.(float64), float64(l)), nil
		case float64:
			return cmpFloat(value.(float64), l), nil
		}
		return 0, fmt.Errorf("%s is not a number", lit)
	case vartype.KindString:
		return strings.Compare(value.(string), lit.Text), nil
	case vartype.KindDateTime:
		ts, ok := convert.ParseDateTime(lit.Text)
		if !ok {
			return 0, fmt.Errorf("%s is not a date", lit)
		}
		return value.(time.Time).Compare(ts), nil
	default:
		return 0, fmt.Errorf("unsupported type %s", t)
	}
}

func cmpOrdered(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	if math.Abs(a-b) < FloatTolerance {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func text(value any, t vartype.Type) string {
	if s, ok := value.(string); ok {
		return s
	}
	if ts, ok := value.(time.Time); ok {
		return ts.Format(time.RFC3339Nano)
	}
	return convert.ToJSONText(value, t)
}

// like matches s against pattern: %x% contains, x% prefix, %x suffix,
// anything else is an exact match.
func like(s, pattern string) bool {
	switch {
	case len(pattern) >= 2 && strings.HasPrefix(pattern, "%") && strings.HasSuffix(pattern, "%"):
		return strings.Contains(s, pattern[1:len(pattern)-1])
	case strings.HasSuffix(pattern, "%"):
		return strings.HasPrefix(s, pattern[:len(pattern)-1])
	case strings.HasPrefix(pattern, "%"):
		return strings.HasSuffix(s, pattern[1:])
	default:
		return s == pattern
	}
}

// Check parses text and evaluates it against reg.
func Check(text string, reg *registry.Registry) (Result, error) {
	node, err := Parse(text)
	if err != nil {
		return Result{}, err
	}
	return NewEvaluator(reg).Evaluate(node), nil
}
