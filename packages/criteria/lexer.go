package criteria

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal
	TokenIdentifier
	TokenNumber
	TokenString
	TokenBoolean
	TokenOperator
	TokenAnd
	TokenOr
	TokenNot
	TokenLeftParen
	TokenRightParen
	TokenLeftBracket
	TokenRightBracket
	TokenDot
)

var tokenNames = map[TokenType]string{
	TokenEOF:          "end of expression",
	TokenIllegal:      "illegal",
	TokenIdentifier:   "identifier",
	TokenNumber:       "number",
	TokenString:       "string",
	TokenBoolean:      "boolean",
	TokenOperator:     "operator",
	TokenAnd:          "&&",
	TokenOr:           "||",
	TokenNot:          "!",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBracket:  "[",
	TokenRightBracket: "]",
	TokenDot:          ".",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type Token struct {
	Type   TokenType
	Value  string
	Column int
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return t.Type.String()
	}
	return fmt.Sprintf("%q", t.Value)
}

type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
	column  int
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	// columns count characters, not bytes
	if !utf8.RuneStart(l.ch) {
		return
	}
	l.column++
}

// currentRune decodes the character starting at the current position.
func (l *Lexer) currentRune() (rune, int) {
	if l.pos >= len(l.input) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.input[l.pos:])
}

func (l *Lexer) advance(size int) {
	for i := 0; i < size; i++ {
		l.readChar()
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

// NextToken returns the next token. Unknown characters and unterminated
// strings yield a TokenIllegal whose value describes the problem.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Column: l.column}

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
		return tok
	case '&':
		if l.peekChar() == '&' {
			return l.two(TokenAnd, "&&")
		}
	case '|':
		if l.peekChar() == '|' {
			return l.two(TokenOr, "||")
		}
	case '!':
		if l.peekChar() == '=' {
			return l.two(TokenOperator, "!=")
		}
		return l.one(TokenNot)
	case '>', '<':
		if l.peekChar() == '=' {
			return l.two(TokenOperator, string(l.ch)+"=")
		}
		return l.one(TokenOperator)
	case '=':
		return l.one(TokenOperator)
	case '(':
		return l.one(TokenLeftParen)
	case ')':
		return l.one(TokenRightParen)
	case '[':
		return l.one(TokenLeftBracket)
	case ']':
		return l.one(TokenRightBracket)
	case '.':
		return l.one(TokenDot)
	case '"', '\'':
		return l.readString(l.ch)
	case '-':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
	default:
		if isDigit(l.ch) {
			return l.readNumber()
		}
		if r, _ := l.currentRune(); isIdentStart(r) {
			return l.readIdentifierOrKeyword()
		}
	}

	r, size := l.currentRune()
	tok.Type = TokenIllegal
	tok.Value = fmt.Sprintf("unexpected character %q", r)
	l.advance(max(size, 1))
	return tok
}

func (l *Lexer) one(t TokenType) Token {
	tok := Token{Type: t, Value: string(l.ch), Column: l.column}
	l.readChar()
	return tok
}

func (l *Lexer) two(t TokenType, value string) Token {
	tok := Token{Type: t, Value: value, Column: l.column}
	l.readChar()
	l.readChar()
	return tok
}

func (l *Lexer) readString(quote byte) Token {
	col := l.column
	l.readChar()
	var builder strings.Builder
	for l.ch != 0 && l.ch != quote {
		if l.ch == '\\' && l.peekChar() == quote {
			l.readChar()
		}
		builder.WriteByte(l.ch)
		l.readChar()
	}
	if l.ch != quote {
		return Token{Type: TokenIllegal, Value: "unterminated string", Column: col}
	}
	l.readChar()
	return Token{Type: TokenString, Value: builder.String(), Column: col}
}

func (l *Lexer) readNumber() Token {
	col := l.column
	var builder strings.Builder
	if l.ch == '-' {
		builder.WriteByte(l.ch)
		l.readChar()
	}
	for isDigit(l.ch) {
		builder.WriteByte(l.ch)
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		builder.WriteByte(l.ch)
		l.readChar()
		for isDigit(l.ch) {
			builder.WriteByte(l.ch)
			l.readChar()
		}
	}
	return Token{Type: TokenNumber, Value: builder.String(), Column: col}
}

func (l *Lexer) readIdentifierOrKeyword() Token {
	col := l.column
	start := l.pos
	for {
		r, size := l.currentRune()
		if size == 0 || !isIdentPart(r) {
			break
		}
		l.advance(size)
	}
	word := l.input[start:l.pos]

	switch strings.ToLower(word) {
	case "true", "false":
		return Token{Type: TokenBoolean, Value: strings.ToLower(word), Column: col}
	case "like":
		return Token{Type: TokenOperator, Value: "like", Column: col}
	}
	return Token{Type: TokenIdentifier, Value: word, Column: col}
}

// Tokenize lexes the whole input. The last token is always TokenEOF.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenIllegal {
			return nil, &SyntaxError{Column: tok.Column, Message: tok.Value}
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '$' || r == '_'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
