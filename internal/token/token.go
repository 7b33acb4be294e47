package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // count, total, x, y, ...
	NUMBER = "NUMBER" // 42, 3.14
	STRING = "STRING" // "hello"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	BANG     = "!"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	EQ     = "=="
	NOT_EQ = "!="

	LOGICAL_AND = "&&"
	LOGICAL_OR  = "||"

	// Delimiters
	COMMA     = ","
	SEMICOLON = ";"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	FUNCTION = "FUNCTION"
	VAR      = "VAR"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	NIL      = "NIL"
	IF       = "IF"
	ELSE     = "ELSE"
	WHILE    = "WHILE"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	RETURN   = "RETURN"
	PRINT    = "PRINT"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src byte offset of the token
}

var keywords = map[string]TokenType{
	// constants
	"nil":   NIL,
	"true":  TRUE,
	"false": FALSE,

	// declarations
	"fn":  FUNCTION,
	"var": VAR,

	// flow control
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,

	// output
	"print": PRINT,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// LineAndColumn derives 1-based line/column numbers for a byte offset.
// Tokens carry offsets only; positions are resolved for diagnostics on demand.
func LineAndColumn(src string, pos int) (line int, column int) {
	line = 1
	column = 1
	for i, char := range src {
		if i == pos {
			break
		}
		if char == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}
