package template

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
)

// SingleCapturePattern matches a whole header value as one group.
const SingleCapturePattern = `^(.+?)$`

// ParseResponseFile reads and parses a response template file.
func (p *Parser) ParseResponseFile(path string) (*ResponseTemplate, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseResponse(string(content))
}

// ParseResponse parses a response template: a status line, header lines
// that may embed placeholders, a blank line and an optional JSON body.
func (p *Parser) ParseResponse(text string) (*ResponseTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Section: "response", Err: ErrEmptyTemplate, Message: ErrEmptyTemplate.Error()}
	}
	p.reset()

	tmpl := &ResponseTemplate{Original: text}
	headerLines, body, bodyLine := splitSections(text)

	if len(headerLines) == 0 {
		return nil, &ParseError{Section: "status line", Line: 1, Err: ErrMissingStatusLine, Message: ErrMissingStatusLine.Error()}
	}
	m := statusLineRe.FindStringSubmatch(headerLines[0].text)
	if m == nil {
		return nil, newParseError("status line", headerLines[0].number, ErrMissingStatusLine, "invalid status line %q", headerLines[0].text)
	}
	tmpl.ExpectedStatus, _ = strconv.Atoi(m[1])
	tmpl.Reason = strings.TrimSpace(m[2])

	for _, line := range headerLines[1:] {
		if err := p.parseResponseHeader(line, tmpl); err != nil {
			return nil, err
		}
	}

	if body != "" {
		if err := p.parseResponseBody(body, bodyLine, tmpl); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

func (p *Parser) parseResponseHeader(line numberedLine, tmpl *ResponseTemplate) error {
	m := headerLineRe.FindStringSubmatch(line.text)
	if m == nil {
		p.warn("response template line %d is not a header, skipped: %s", line.number, line.text)
		return nil
	}
	name := strings.TrimSpace(m[1])
	value := strings.TrimSpace(m[2])
	tmpl.Headers = append(tmpl.Headers, Header{Name: name, Value: value})

	placeholders := FindPlaceholders(value)
	if len(placeholders) == 0 {
		return nil
	}

	mappings, err := p.headerMappings(name, value, placeholders, line.number)
	if err != nil {
		return err
	}
	for _, mapping := range mappings {
		tmpl.HeaderMappings = append(tmpl.HeaderMappings, mapping)
		p.registry.Register(registry.NewVariable(mapping.Variable, mapping.Type, registry.SourceResponse, ""))
	}
	for _, ph := range placeholders {
		t, _ := ph.Type()
		tmpl.Expressions = append(tmpl.Expressions, p.newExpression(ph, t, LocationHeader))
	}
	return nil
}

// headerMappings builds the capture mappings of one header value. A value
// that is exactly one placeholder captures the whole value; otherwise the
// literal text around the placeholders is escaped and each placeholder
// becomes a lazy group numbered from 1.
func (p *Parser) headerMappings(name, value string, placeholders []Placeholder, line int) ([]*HeaderMapping, error) {
	types := make([]vartype.Type, len(placeholders))
	for i, ph := range placeholders {
		t, err := ph.Type()
		if err != nil {
			return nil, typeError("header", line, ph, err)
		}
		types[i] = t
	}

	if len(placeholders) == 1 && placeholders[0].Original == value {
		mapping := &HeaderMapping{
			Header:   name,
			Pattern:  SingleCapturePattern,
			Group:    1,
			Variable: placeholders[0].Name,
			Type:     types[0],
		}
		return []*HeaderMapping{mapping}, nil
	}

	var sb strings.Builder
	sb.WriteString("^")
	last := 0
	for _, ph := range placeholders {
		sb.WriteString(regexp.QuoteMeta(value[last:ph.Start]))
		sb.WriteString("(.+?)")
		last = ph.End
	}
	sb.WriteString(regexp.QuoteMeta(value[last:]))
	sb.WriteString("$")
	pattern := sb.String()

	mappings := make([]*HeaderMapping, len(placeholders))
	for i, ph := range placeholders {
		mappings[i] = &HeaderMapping{
			Header:   name,
			Pattern:  pattern,
			Group:    i + 1,
			Variable: ph.Name,
			Type:     types[i],
		}
	}
	return mappings, nil
}

func (p *Parser) parseResponseBody(body string, bodyLine int, tmpl *ResponseTemplate) error {
	marked, exprs, err := p.markBody(body, bodyLine)
	if err != nil {
		return err
	}
	tmpl.Body = marked
	tmpl.Expressions = append(tmpl.Expressions, exprs...)
	for _, e := range exprs {
		p.register(e, registry.SourceResponse)
	}

	root, err := jsontree.Parse(marked)
	if err != nil {
		if len(exprs) == 0 {
			return nil
		}
		return newParseError("body", bodyLine, ErrInvalidBody, "%v", ErrInvalidBody)
	}
	tmpl.Tree = root

	if e := keyPlaceholder(root, exprs); e != nil {
		return newParseError("body", bodyLine, ErrPlaceholderInKey, "%v: %s", ErrPlaceholderInKey, e.Original)
	}

	for _, visit := range collectMarkers(root, exprs) {
		if visit.inline {
			return newParseError("body", bodyLine, ErrInvalidBody, "placeholder %s must be a whole JSON value", visit.expr.Original)
		}
		proj, err := detectProjection(root, visit.path)
		if err != nil {
			return bodyError(bodyLine, err)
		}

		mapping := &BodyMapping{
			Variable: visit.expr.VariableName,
			Type:     visit.expr.Type,
		}
		if proj != nil {
			mapping.Projection = proj
			mapping.Type = vartype.Promote(mapping.Type)
			visit.expr.Type = mapping.Type
		} else {
			mapping.Pointer = visit.path
		}
		if !hasBodyMapping(tmpl.BodyMappings, mapping) {
			tmpl.BodyMappings = append(tmpl.BodyMappings, mapping)
		}
		p.register(visit.expr, registry.SourceResponse)
	}
	return nil
}

// hasBodyMapping reports whether an equivalent mapping exists. Every element
// of a sample array yields the same projection.
func hasBodyMapping(mappings []*BodyMapping, m *BodyMapping) bool {
	for _, existing := range mappings {
		if !strings.EqualFold(existing.Variable, m.Variable) || existing.Pointer != m.Pointer {
			continue
		}
		if existing.Projection == nil && m.Projection == nil {
			return true
		}
		if existing.Projection != nil && m.Projection != nil && *existing.Projection == *m.Projection {
			return true
		}
	}
	return false
}
