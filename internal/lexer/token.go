// Package lexer converts Cypher query text into a finite, positioned
// token sequence. Tokenization runs on top of
// github.com/alecthomas/participle/v2/lexer, used at the raw
// regex-rule-table layer; line comments and nested block comments are
// hand-scrubbed before that layer runs, since a flat regex rule table
// cannot express nesting.
package lexer

// Kind identifies a token's lexical category.
type Kind int

const (
	EOF Kind = iota
	Keyword
	Ident
	BacktickIdent
	String
	Int
	Float
	Parameter
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Keyword:
		return "Keyword"
	case Ident:
		return "Ident"
	case BacktickIdent:
		return "BacktickIdent"
	case String:
		return "String"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Parameter:
		return "Parameter"
	case Punct:
		return "Punct"
	default:
		return "Unknown"
	}
}

// Token is a single lexeme with its byte span in the original source
// text, satisfying a "(kind, byte_span)" token contract.
type Token struct {
	Kind    Kind
	Text    string // decoded text: quotes/backticks stripped, escapes resolved
	Raw     string // the literal source slice, for error messages
	Offset  int    // byte offset of the first rune
	EndByte int    // byte offset one past the last rune
	Line    int
	Column  int
}

// Keywords is the case-insensitive reserved word set.
var Keywords = map[string]bool{}

func init() {
	for _, kw := range []string{
		"MATCH", "OPTIONAL", "WHERE", "RETURN", "WITH", "UNWIND", "CREATE",
		"MERGE", "DELETE", "DETACH", "SET", "REMOVE", "CALL", "YIELD",
		"ORDER", "BY", "ASC", "DESC", "SKIP", "LIMIT", "DISTINCT", "AS",
		"IN", "IS", "NULL", "TRUE", "FALSE", "AND", "OR", "NOT", "XOR",
		"CASE", "WHEN", "THEN", "ELSE", "END", "STARTS", "ENDS",
		"CONTAINS", "DROP", "INDEX", "CONSTRAINT", "FOR", "ON", "REQUIRE",
		"ASSERT", "UNIQUE", "EXISTS", "UNION", "ALL", "ANY", "NONE", "SINGLE",
	} {
		Keywords[kw] = true
	}
}
