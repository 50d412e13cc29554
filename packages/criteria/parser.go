package criteria

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports malformed criteria text. Column is 1-based.
type SyntaxError struct {
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("criteria syntax error at column %d: %s", e.Column, e.Message)
	}
	return fmt.Sprintf("criteria syntax error: %s", e.Message)
}

type parser struct {
	tokens []Token
	pos    int
}

// Parse parses criteria text into an expression tree:
//
//	Or      := And ('||' And)*
//	And     := Unary ('&&' Unary)*
//	Unary   := '!' Unary | Primary
//	Primary := '(' Or ')' | Accessor (CompareOp Literal)?
//	Accessor := ident ('.' ident | '[' integer ']')*
func Parse(text string) (*Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SyntaxError{Message: "expression is empty"}
	}
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected %s", tok)
	}
	return node, nil
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Column: tok.Column, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeLogical, Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeLogical, Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (*Node, error) {
	if p.current().Type == TokenNot {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeNot, Inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Node, error) {
	tok := p.current()
	if tok.Type == TokenLeftParen {
		p.advance()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.current(); closing.Type != TokenRightParen {
			return nil, p.errorf(closing, "expected ) but got %s", closing)
		}
		p.advance()
		return node, nil
	}

	if tok.Type != TokenIdentifier {
		return nil, p.errorf(tok, "expected variable but got %s", tok)
	}
	accessor, err := p.parseAccessor()
	if err != nil {
		return nil, err
	}

	if p.current().Type != TokenOperator {
		return &Node{Kind: NodeBoolean, Accessor: accessor}, nil
	}

	opTok := p.advance()
	op, ok := parseOperator(opTok.Value)
	if !ok {
		return nil, p.errorf(opTok, "unknown operator %s", opTok)
	}

	lit := p.current()
	switch lit.Type {
	case TokenNumber, TokenString, TokenBoolean:
		p.advance()
	default:
		return nil, p.errorf(lit, "expected literal after %s but got %s", op, lit)
	}

	return &Node{
		Kind:     NodeComparison,
		Accessor: accessor,
		Operator: op,
		Literal:  newLiteral(lit.Value),
	}, nil
}

func (p *parser) parseAccessor() (*Accessor, error) {
	accessor := &Accessor{Name: p.advance().Value}

	for {
		switch p.current().Type {
		case TokenDot:
			p.advance()
			prop := p.current()
			if prop.Type != TokenIdentifier {
				return nil, p.errorf(prop, "expected property name after . but got %s", prop)
			}
			p.advance()
			accessor.Segments = append(accessor.Segments, Segment{Kind: SegmentProperty, Property: prop.Value})
		case TokenLeftBracket:
			p.advance()
			idxTok := p.current()
			idx, err := strconv.Atoi(idxTok.Value)
			if idxTok.Type != TokenNumber || err != nil {
				return nil, p.errorf(idxTok, "index must be an integer but got %s", idxTok)
			}
			p.advance()
			if closing := p.current(); closing.Type != TokenRightBracket {
				return nil, p.errorf(closing, "expected ] but got %s", closing)
			}
			p.advance()
			accessor.Segments = append(accessor.Segments, Segment{Kind: SegmentIndex, Index: idx})
		default:
			return accessor, nil
		}
	}
}
