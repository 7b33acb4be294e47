package lexer

import (
	"brew/internal/token"
	"unicode"
	"unicode/utf8"
)

// Lexer walks the source text rune by rune and hands out tokens on demand.
// It never backtracks; callers wanting a second pass construct a new Lexer.
type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipWhitespace()

	startPosition := l.position

	switch l.ch {
	case '=':
		tok = l.handleCompoundToken(token.ASSIGN, '=', token.EQ)
	case '+':
		tok = newToken(token.PLUS, l.ch, startPosition)
	case '-':
		tok = newToken(token.MINUS, l.ch, startPosition)
	case '!':
		tok = l.handleCompoundToken(token.BANG, '=', token.NOT_EQ)
	case '*':
		tok = newToken(token.ASTERISK, l.ch, startPosition)
	case '/':
		tok = newToken(token.SLASH, l.ch, startPosition)
	case '%':
		tok = newToken(token.PERCENT, l.ch, startPosition)
	case '<':
		tok = l.handleCompoundToken(token.LT, '=', token.LT_EQ)
	case '>':
		tok = l.handleCompoundToken(token.GT, '=', token.GT_EQ)
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			tok = token.Token{Type: token.LOGICAL_AND, Literal: "&&", Position: startPosition}
		} else {
			tok = newToken(token.ILLEGAL, l.ch, startPosition)
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = token.Token{Type: token.LOGICAL_OR, Literal: "||", Position: startPosition}
		} else {
			tok = newToken(token.ILLEGAL, l.ch, startPosition)
		}
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, startPosition)
	case ',':
		tok = newToken(token.COMMA, l.ch, startPosition)
	case '(':
		tok = newToken(token.LPAREN, l.ch, startPosition)
	case ')':
		tok = newToken(token.RPAREN, l.ch, startPosition)
	case '{':
		tok = newToken(token.LBRACE, l.ch, startPosition)
	case '}':
		tok = newToken(token.RBRACE, l.ch, startPosition)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, startPosition)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, startPosition)
	case '"':
		literal, ok := l.readString()
		if !ok {
			return token.Token{Type: token.ILLEGAL, Literal: literal, Position: startPosition}
		}
		return token.Token{Type: token.STRING, Literal: literal, Position: startPosition}
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
		tok.Position = startPosition
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Position = startPosition
			return tok
		} else if isDigit(l.ch) {
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			tok.Position = startPosition
			return tok
		} else {
			tok = newToken(token.ILLEGAL, l.ch, startPosition)
		}
	}

	l.readChar()
	return tok
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	startPosition := l.position
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: startPosition}
	}
	return newToken(t, l.ch, startPosition)
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readChar()
		case '#':
			l.skipToLineEnd()
		case '/':
			if l.peekChar() == '/' {
				l.skipToLineEnd()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// readIdentifier returns the substring (bytes) covering the identifier runes
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber scans an integer literal, optionally followed by a fractional part.
// Maximal munch: `3.14` is one token, `3.` is NUMBER `3` followed by an illegal dot.
func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

// readString consumes a double-quoted string with escape handling.
// Returns ok=false for an unterminated literal; the raw prefix is returned
// so diagnostics can point at the opening quote.
func (l *Lexer) readString() (string, bool) {
	start := l.position
	l.readChar() // consume the opening "

	var out []rune
	for {
		switch l.ch {
		case '"':
			l.readChar() // consume the closing "
			return string(out), true
		case 0, '\n':
			return l.input[start:l.position], false
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			default:
				// unknown escapes keep the backslash verbatim
				out = append(out, '\\', l.ch)
			}
			l.readChar()
		default:
			out = append(out, l.ch)
			l.readChar()
		}
	}
}

// Unicode-aware helpers
func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
