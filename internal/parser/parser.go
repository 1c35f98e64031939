// Package parser implements a hand-written recursive-descent parser over
// the token stream produced by internal/lexer, building the typed tree
// defined in internal/ast: a Parser struct walking a token slice with
// pos/peek/expect helpers, using explicit precedence-climbing rather than
// a declarative grammar, since the operator precedence this grammar
// needs isn't expressible as struct-tag grammar rules.
package parser

import (
	"fmt"
	"strconv"

	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/errs"
	"github.com/ritamzico/cyquery/internal/lexer"
)

// Parser walks a fully-tokenized input. The whole stream is buffered up
// front so lookahead is just index arithmetic.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse tokenizes and parses a single statement: a Query, or a standalone
// schema DDL statement.
func Parse(src string) (ast.Statement, error) {
	toks, err := lexer.All(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf("unexpected trailing input %q", p.cur().Raw)
	}
	return stmt, nil
}

// parseUnion parses `query (UNION [ALL] query)*`.
func (p *Parser) parseUnion() (ast.Statement, error) {
	first, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("UNION") {
		return first, nil
	}

	u := &ast.UnionQuery{Position: first.Pos(), Branches: []*ast.Query{first}}
	for p.tryKeyword("UNION") {
		all := p.tryKeyword("ALL")
		next, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		u.All = append(u.All, all)
		u.Branches = append(u.Branches, next)
	}
	return u, nil
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) atEnd() bool       { return p.cur().Kind == lexer.EOF }

func (p *Parser) peekAt(offset int) lexer.Token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if t.Kind != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) pos2() ast.Position {
	t := p.cur()
	return ast.Position{Offset: t.Offset, Line: t.Line, Column: t.Column}
}

func (p *Parser) errorf(format string, args ...any) error {
	return &errs.SyntaxError{Position: p.cur().Offset, Message: fmt.Sprintf(format, args...)}
}

// isKeyword reports whether the current token is the given keyword
// (case-insensitive match handled by the lexer, which already upcases
// keyword text).
func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Kind == lexer.Keyword && t.Text == kw
}

func (p *Parser) isPunct(s string) bool {
	t := p.cur()
	return t.Kind == lexer.Punct && t.Raw == s
}

func (p *Parser) expectKeyword(kw string) (lexer.Token, error) {
	if !p.isKeyword(kw) {
		return lexer.Token{}, p.errorf("expected %q, got %q", kw, p.cur().Raw)
	}
	return p.advance(), nil
}

func (p *Parser) expectPunct(s string) (lexer.Token, error) {
	if !p.isPunct(s) {
		return lexer.Token{}, p.errorf("expected %q, got %q", s, p.cur().Raw)
	}
	return p.advance(), nil
}

// tryKeyword consumes and reports true if the current token matches kw.
func (p *Parser) tryKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) tryPunct(s string) bool {
	if p.isPunct(s) {
		p.advance()
		return true
	}
	return false
}

// parseName accepts Ident or BacktickIdent as a name (variable, label,
// relationship type, property key, procedure/function name).
func (p *Parser) parseName() (string, error) {
	t := p.cur()
	if t.Kind == lexer.Ident || t.Kind == lexer.BacktickIdent {
		p.advance()
		return t.Text, nil
	}
	return "", p.errorf("expected identifier, got %q", t.Raw)
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	if p.isKeyword("CREATE") && (p.peekAt(1).Text == "INDEX" || p.peekAt(1).Text == "CONSTRAINT") {
		return p.parseSchemaStatement()
	}
	if p.isKeyword("DROP") {
		return p.parseSchemaStatement()
	}
	return p.parseUnion()
}

func parseInt(tok lexer.Token) (int64, error) {
	v, err := strconv.ParseInt(tok.Raw, 10, 64)
	if err != nil {
		return 0, &errs.SyntaxError{Position: tok.Offset, Message: "invalid integer literal " + tok.Raw}
	}
	return v, nil
}

func parseFloat(tok lexer.Token) (float64, error) {
	v, err := strconv.ParseFloat(tok.Raw, 64)
	if err != nil {
		return 0, &errs.SyntaxError{Position: tok.Offset, Message: "invalid float literal " + tok.Raw}
	}
	return v, nil
}
