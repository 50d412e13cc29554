package template

import (
	"errors"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
)

// ParseRequestFile reads and parses a request template file.
func (p *Parser) ParseRequestFile(path string) (*RequestTemplate, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseRequest(string(content))
}

// ParseRequest parses a request template: a METHOD URL line, header lines,
// a blank line and an optional JSON body.
func (p *Parser) ParseRequest(text string) (*RequestTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Section: "request", Err: ErrEmptyTemplate, Message: ErrEmptyTemplate.Error()}
	}
	p.reset()

	tmpl := &RequestTemplate{Original: text}
	headerLines, body, bodyLine := splitSections(text)

	if len(headerLines) == 0 {
		return nil, &ParseError{Section: "request line", Line: 1, Err: ErrMissingRequestLine, Message: ErrMissingRequestLine.Error()}
	}
	if err := p.parseRequestLine(headerLines[0], tmpl); err != nil {
		return nil, err
	}
	for _, line := range headerLines[1:] {
		if err := p.parseRequestHeader(line, tmpl); err != nil {
			return nil, err
		}
	}

	if body != "" {
		if err := p.parseRequestBody(body, bodyLine, tmpl); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

func (p *Parser) parseRequestLine(line numberedLine, tmpl *RequestTemplate) error {
	m := requestLineRe.FindStringSubmatch(line.text)
	if m == nil {
		return newParseError("request line", line.number, ErrMissingRequestLine, "invalid request line %q", line.text)
	}
	tmpl.Method = m[1]
	tmpl.URL = strings.TrimSpace(m[2])
	return p.registerLiteral(tmpl.URL, LocationURL, "request line", line.number, tmpl)
}

func (p *Parser) parseRequestHeader(line numberedLine, tmpl *RequestTemplate) error {
	m := headerLineRe.FindStringSubmatch(line.text)
	if m == nil {
		p.warn("request template line %d is not a header, skipped: %s", line.number, line.text)
		return nil
	}
	h := Header{Name: strings.TrimSpace(m[1]), Value: strings.TrimSpace(m[2])}
	tmpl.Headers = append(tmpl.Headers, h)
	return p.registerLiteral(h.Value, LocationHeader, "header", line.number, tmpl)
}

// registerLiteral records URL and header placeholders. Their text stays in
// place and is substituted with the formatted value at build time, so the
// variable is always a scalar String whatever keyword was written.
func (p *Parser) registerLiteral(text string, loc Location, section string, line int, tmpl *RequestTemplate) error {
	for _, ph := range FindPlaceholders(text) {
		if _, err := ph.Type(); err != nil {
			return typeError(section, line, ph, err)
		}
		expr := p.newExpression(ph, vartype.String, loc)
		tmpl.Expressions = append(tmpl.Expressions, expr)
		p.register(expr, registry.SourceRequest)
	}
	return nil
}

func (p *Parser) parseRequestBody(body string, bodyLine int, tmpl *RequestTemplate) error {
	marked, exprs, err := p.markBody(body, bodyLine)
	if err != nil {
		return err
	}
	tmpl.Body = marked
	tmpl.Expressions = append(tmpl.Expressions, exprs...)
	for _, e := range exprs {
		p.register(e, registry.SourceRequest)
	}

	root, err := jsontree.Parse(marked)
	if err != nil {
		if len(exprs) == 0 {
			// plain text body without placeholders
			return nil
		}
		return newParseError("body", bodyLine, ErrInvalidBody, "%v", ErrInvalidBody)
	}
	tmpl.Tree = root

	if e := keyPlaceholder(root, exprs); e != nil {
		return newParseError("body", bodyLine, ErrPlaceholderInKey, "%v: %s", ErrPlaceholderInKey, e.Original)
	}

	for _, visit := range collectMarkers(root, exprs) {
		proj, err := detectProjection(root, visit.path)
		if err != nil {
			return bodyError(bodyLine, err)
		}

		if proj == nil {
			tmpl.Placeholders = append(tmpl.Placeholders, BodyPlaceholder{
				Pointer:    visit.path,
				Expression: visit.expr,
				Inline:     visit.inline,
			})
			continue
		}
		if visit.inline {
			return newParseError("body", bodyLine, ErrEmbeddedInArray, "%v: %s", ErrEmbeddedInArray, visit.expr.Original)
		}

		arr, err := requestArray(tmpl, root, proj.CollectionPointer)
		if err != nil {
			return bodyError(bodyLine, err)
		}
		visit.expr.Type = vartype.Promote(visit.expr.Type)
		arr.Slots = append(arr.Slots, ArraySlot{
			ElementPointer: proj.ElementPointer,
			Expression:     visit.expr,
		})
		p.register(visit.expr, registry.SourceRequest)
	}
	return nil
}

// requestArray returns the array template for pointer, creating it from the
// first element of the array node on first use.
func requestArray(tmpl *RequestTemplate, root *jsontree.Node, pointer string) (*ArrayTemplate, error) {
	if arr := tmpl.array(pointer); arr != nil {
		return arr, nil
	}
	node, ok := jsontree.Get(root, pointer)
	if !ok || node.Kind != jsontree.KindArray || len(node.Items) == 0 {
		return nil, &ParseError{Section: "body", Err: ErrEmptyArray, Message: ErrEmptyArray.Error() + ": " + pointer}
	}
	arr := &ArrayTemplate{
		CollectionPointer: pointer,
		Prototype:         node.Items[0].Clone(),
	}
	tmpl.Arrays = append(tmpl.Arrays, arr)
	return arr, nil
}

func bodyError(line int, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		if pe.Line == 0 {
			pe.Line = line
		}
		return pe
	}
	return &ParseError{Section: "body", Line: line, Message: err.Error(), Err: err}
}
