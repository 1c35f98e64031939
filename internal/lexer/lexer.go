package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/ritamzico/cyquery/internal/errs"
)

// simpleDef is the participle rule table, split into the fuller token set
// this grammar requires (backtick idents, parameters, separate Int/Float);
// ruleKind maps each rule name to our Kind.
var simpleDef = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(MATCH|OPTIONAL|WHERE|RETURN|WITH|UNWIND|CREATE|MERGE|DELETE|DETACH|SET|REMOVE|CALL|YIELD|ORDER|BY|ASC|DESC|SKIP|LIMIT|DISTINCT|AS|IN|IS|NULL|TRUE|FALSE|AND|OR|NOT|XOR|CASE|WHEN|THEN|ELSE|END|STARTS|ENDS|CONTAINS|DROP|INDEX|CONSTRAINT|FOR|ON|REQUIRE|ASSERT|UNIQUE|EXISTS|UNION|ALL|ANY|NONE|SINGLE)\b`},
	{Name: "Float", Pattern: `\d+\.\d+([eE][+-]?\d+)?|\d+[eE][+-]?\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Parameter", Pattern: `\$[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "BacktickIdent", Pattern: "`([^`]|``)*`"},
	{Name: "String", Pattern: `"([^"\\]|\\.)*"|'([^'\\]|\\.)*'`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `\.\.|<=|>=|\+=|->|<-|=~|<>|[(){}\[\]:,.;=<>+*/%^|-]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var ruleKind map[string]Kind

func init() {
	ruleKind = map[string]Kind{
		"Keyword":       Keyword,
		"Ident":         Ident,
		"BacktickIdent": BacktickIdent,
		"String":        String,
		"Int":           Int,
		"Float":         Float,
		"Parameter":     Parameter,
		"Punct":         Punct,
	}
}

// Lexer tokenizes one query's worth of source text.
type Lexer struct {
	src    string
	inner  lexer.Lexer
	names  map[lexer.TokenType]string
	elided map[lexer.TokenType]bool
}

// New builds a Lexer over src, after scrubbing nested block and line
// comments (see scrub.go).
func New(src string) (*Lexer, error) {
	scrubbed, err := scrub(src)
	if err != nil {
		return nil, err
	}

	inner, err := simpleDef.Lex("", strings.NewReader(scrubbed))
	if err != nil {
		return nil, &errs.SyntaxError{Position: 0, Message: "failed to initialize lexer: " + err.Error()}
	}

	symbols := simpleDef.Symbols()
	names := make(map[lexer.TokenType]string, len(symbols))
	elided := make(map[lexer.TokenType]bool, 1)
	for name, tt := range symbols {
		names[tt] = name
		if name == "Whitespace" {
			elided[tt] = true
		}
	}

	return &Lexer{src: src, inner: inner, names: names, elided: elided}, nil
}

// Next returns the next token, skipping elided whitespace. At end of input
// it returns a Token{Kind: EOF}.
func (l *Lexer) Next() (Token, error) {
	for {
		tok, err := l.inner.Next()
		if err != nil {
			return Token{}, &errs.SyntaxError{Position: len(l.src), Message: "unrecognized input: " + err.Error()}
		}
		if tok.EOF() {
			return Token{Kind: EOF, Offset: len(l.src), EndByte: len(l.src)}, nil
		}
		if l.elided[tok.Type] {
			continue
		}
		name := l.names[tok.Type]
		kind, ok := ruleKind[name]
		if !ok {
			return Token{}, &errs.SyntaxError{Position: tok.Pos.Offset, Message: "unrecognized token rule " + name}
		}

		out := Token{
			Kind:    kind,
			Raw:     tok.Value,
			Offset:  tok.Pos.Offset,
			EndByte: tok.Pos.Offset + len(tok.Value),
			Line:    tok.Pos.Line,
			Column:  tok.Pos.Column,
		}

		switch kind {
		case Keyword, Ident:
			out.Text = strings.ToUpper(tok.Value)
			if kind == Ident {
				out.Text = tok.Value
			}
		case BacktickIdent:
			out.Text = decodeBacktick(tok.Value)
		case String:
			decoded, derr := decodeString(tok.Value)
			if derr != nil {
				return Token{}, &errs.SyntaxError{Position: tok.Pos.Offset, Message: derr.Error()}
			}
			out.Text = decoded
		case Parameter:
			out.Text = tok.Value[1:]
		default:
			out.Text = tok.Value
		}

		return out, nil
	}
}

// All tokenizes src completely, for callers (like the parser's lookahead
// buffer) that want the whole stream up front.
func All(src string) ([]Token, error) {
	l, err := New(src)
	if err != nil {
		return nil, err
	}
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

func decodeBacktick(raw string) string {
	inner := raw[1 : len(raw)-1]
	return strings.ReplaceAll(inner, "``", "`")
}

func decodeString(raw string) (string, error) {
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	i := 0
	for i < len(inner) {
		c := inner[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(inner) {
			return "", &errs.SyntaxError{Message: "unterminated escape sequence in string literal"}
		}
		esc := inner[i+1]
		switch esc {
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case '\\':
			b.WriteByte('\\')
			i += 2
		case '\'':
			b.WriteByte('\'')
			i += 2
		case '"':
			b.WriteByte('"')
			i += 2
		case 'u':
			if i+6 > len(inner) {
				return "", &errs.SyntaxError{Message: "truncated \\u escape in string literal"}
			}
			hex := inner[i+2 : i+6]
			code, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return "", &errs.SyntaxError{Message: "invalid \\u escape " + hex}
			}
			b.WriteRune(rune(code))
			i += 6
		default:
			return "", &errs.SyntaxError{Message: "unknown escape sequence \\" + string(esc)}
		}
	}
	return b.String(), nil
}

// runeLen is used by scrub.go to advance by whole runes when replacing
// comment bodies with equal-byte-length whitespace.
func runeLen(s string, i int) int {
	_, size := utf8.DecodeRuneInString(s[i:])
	if size == 0 {
		return 1
	}
	return size
}
