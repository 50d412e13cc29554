package template

import (
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
)

var (
	placeholderRe = regexp.MustCompile(`@(\w+(?:<\w+>|\[\])?)?\((\w+)(?::([^)]+))?\)`)
	requestLineRe = regexp.MustCompile(`^(GET|POST|PUT|DELETE|PATCH)\s+(.+)$`)
	statusLineRe  = regexp.MustCompile(`^(\d{3})\s+(.*)$`)
	headerLineRe  = regexp.MustCompile(`^([^:]+):\s*(.*)$`)
	markerRe      = regexp.MustCompile(`^\$\{([A-Za-z0-9_]+)\}\$$`)
	inlineMarkRe  = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}\$`)
)

// Placeholder is a single @TYPE(name:format) occurrence in template text.
// Start and End are byte offsets of Original within the scanned text.
type Placeholder struct {
	Original string
	TypeName string
	Name     string
	Format   string
	Start    int
	End      int
}

// Type resolves the placeholder's type keyword.
func (p Placeholder) Type() (vartype.Type, error) {
	return vartype.Parse(p.TypeName)
}

// FindPlaceholders returns every placeholder in text, left to right.
func FindPlaceholders(text string) []Placeholder {
	matches := placeholderRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	out := make([]Placeholder, 0, len(matches))
	for _, m := range matches {
		p := Placeholder{
			Original: text[m[0]:m[1]],
			Name:     text[m[4]:m[5]],
			Start:    m[0],
			End:      m[1],
		}
		if m[2] >= 0 {
			p.TypeName = text[m[2]:m[3]]
		}
		if m[6] >= 0 {
			p.Format = text[m[6]:m[7]]
		}
		out = append(out, p)
	}
	return out
}

// HasPlaceholders reports whether text contains at least one placeholder.
func HasPlaceholders(text string) bool {
	return placeholderRe.MatchString(text)
}

// Marker returns the body marker text for an expression id.
func Marker(id string) string {
	return "${" + id + "}$"
}

// MarkerID returns the expression id when s is exactly one body marker.
func MarkerID(s string) (string, bool) {
	m := markerRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// InlineMarkerIDs returns the ids of markers embedded in s, in order.
func InlineMarkerIDs(s string) []string {
	var ids []string
	for _, m := range inlineMarkRe.FindAllStringSubmatch(s, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

// splitSections separates the header block from the body. The first
// whitespace-only line ends the headers. Header lines keep their 1-based line
// numbers; blank lines are dropped.
func splitSections(text string) ([]numberedLine, string, int) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	blank := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank = i
			break
		}
	}

	headerEnd := len(lines)
	body := ""
	bodyLine := 0
	if blank >= 0 {
		headerEnd = blank
		body = strings.TrimSpace(strings.Join(lines[blank+1:], "\n"))
		bodyLine = blank + 2
		for i := blank + 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) != "" {
				bodyLine = i + 1
				break
			}
		}
	}

	var header []numberedLine
	for i := 0; i < headerEnd; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		header = append(header, numberedLine{text: line, number: i + 1})
	}
	return header, body, bodyLine
}

type numberedLine struct {
	text   string
	number int
}

// lineOf returns the 1-based line of offset within text, starting at first.
func lineOf(text string, offset, first int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return first + strings.Count(text[:offset], "\n")
}

func typeError(section string, line int, p Placeholder, err error) *ParseError {
	return newParseError(section, line, err, "placeholder %s: %v", p.Original, err)
}
