package parser

import (
	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/lexer"
)

// parseExpression is the entry point of the precedence-climbing chain,
// loosest to tightest:
//
//	OR
//	XOR
//	AND
//	NOT (prefix)
//	comparison chain: =, <>, <, <=, >, >=, IN, STARTS WITH, ENDS WITH,
//	  CONTAINS, =~, IS NULL, IS NOT NULL
//	+ -
//	* / %
//	^ (right-associative)
//	unary -
//	property access / subscript (postfix, tightest)
func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		pos := p.pos2()
		p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("XOR") {
		pos := p.pos2()
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: "XOR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		pos := p.pos2()
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expression, error) {
	if p.isKeyword("NOT") {
		pos := p.pos2()
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Position: pos, Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

// comparisonOps are the punctuation-form comparison/equality operators,
// all at one precedence level.
var comparisonOps = map[string]bool{
	"=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.cur().Kind == lexer.Punct && comparisonOps[p.cur().Raw]:
			pos := p.pos2()
			op := p.advance().Raw
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Position: pos, Op: op, Left: left, Right: right}

		case p.isPunct("=~"):
			pos := p.pos2()
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Position: pos, Op: "=~", Left: left, Right: right}

		case p.isKeyword("IN"):
			pos := p.pos2()
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Position: pos, Op: "IN", Left: left, Right: right}

		case p.isKeyword("STARTS"):
			pos := p.pos2()
			p.advance()
			if _, err := p.expectKeyword("WITH"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Position: pos, Op: "STARTS WITH", Left: left, Right: right}

		case p.isKeyword("ENDS"):
			pos := p.pos2()
			p.advance()
			if _, err := p.expectKeyword("WITH"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Position: pos, Op: "ENDS WITH", Left: left, Right: right}

		case p.isKeyword("CONTAINS"):
			pos := p.pos2()
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Position: pos, Op: "CONTAINS", Left: left, Right: right}

		case p.isKeyword("IS"):
			pos := p.pos2()
			p.advance()
			negated := p.tryKeyword("NOT")
			if _, err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			left = &ast.NullCheck{Position: pos, Operand: left, Negated: negated}

		default:
			return left, nil
		}
	}
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		pos := p.pos2()
		op := p.advance().Raw
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		pos := p.pos2()
		op := p.advance().Raw
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parsePower is right-associative: 2^3^2 == 2^(3^2).
func (p *Parser) parsePower() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.isPunct("^") {
		pos := p.pos2()
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Position: pos, Op: "^", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.isPunct("-") {
		pos := p.pos2()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Position: pos, Op: "-", Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles property access (`.key`) and subscripting
// (`[index]`, `[from..to]`), the tightest-binding operators.
func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.isPunct("."):
			pos := p.pos2()
			p.advance()
			key, err := p.parseName()
			if err != nil {
				return nil, err
			}
			expr = &ast.PropertyAccess{Position: pos, Target: expr, Key: key}

		case p.isPunct("["):
			pos := p.pos2()
			p.advance()
			expr, err = p.parseSubscriptTail(pos, expr)
			if err != nil {
				return nil, err
			}

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseSubscriptTail(pos ast.Position, target ast.Expression) (ast.Expression, error) {
	if p.tryPunct("..") {
		var to ast.Expression
		if !p.isPunct("]") {
			var err error
			to, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return &ast.Subscript{Position: pos, Target: target, RangeTo: to, IsSlice: true}, nil
	}

	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.tryPunct("..") {
		var to ast.Expression
		if !p.isPunct("]") {
			to, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return &ast.Subscript{Position: pos, Target: target, RangeFrom: first, RangeTo: to, IsSlice: true}, nil
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return &ast.Subscript{Position: pos, Target: target, Index: first}, nil
}

func (p *Parser) parseAtom() (ast.Expression, error) {
	t := p.cur()
	pos := p.pos2()

	switch {
	case t.Kind == lexer.Int:
		p.advance()
		v, err := parseInt(t)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Position: pos, Kind: ast.LitInt, Int: v}, nil

	case t.Kind == lexer.Float:
		p.advance()
		v, err := parseFloat(t)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Position: pos, Kind: ast.LitFloat, Float: v}, nil

	case t.Kind == lexer.String:
		p.advance()
		return &ast.Literal{Position: pos, Kind: ast.LitString, Str: t.Text}, nil

	case t.Kind == lexer.Parameter:
		p.advance()
		return &ast.Parameter{Position: pos, Name: t.Text}, nil

	case p.isKeyword("TRUE"):
		p.advance()
		return &ast.Literal{Position: pos, Kind: ast.LitBool, Bool: true}, nil

	case p.isKeyword("FALSE"):
		p.advance()
		return &ast.Literal{Position: pos, Kind: ast.LitBool, Bool: false}, nil

	case p.isKeyword("NULL"):
		p.advance()
		return &ast.Literal{Position: pos, Kind: ast.LitNull}, nil

	case p.isKeyword("CASE"):
		return p.parseCaseExpr()

	case p.isKeyword("EXISTS"):
		return p.parseExistsExpr()

	case p.isKeyword("ALL") || p.isKeyword("ANY") || p.isKeyword("NONE") || p.isKeyword("SINGLE"):
		return p.parseQuantifierExpr(t.Text)

	case p.isPunct("("):
		p.advance()
		// Could be a parenthesized expression, or a pattern used as an
		// expression (rare, only inside EXISTS); plain parens cover the
		// common arithmetic-grouping case.
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil

	case p.isPunct("["):
		return p.parseListLiteral()

	case p.isPunct("{"):
		return p.parseMapLiteral()

	case t.Kind == lexer.Ident || t.Kind == lexer.BacktickIdent:
		name, _ := p.parseName()
		if p.isPunct("(") {
			return p.parseFunctionCallTail(pos, name)
		}
		return &ast.Variable{Position: pos, Name: name}, nil

	default:
		return nil, p.errorf("unexpected token %q in expression", t.Raw)
	}
}

func (p *Parser) parseFunctionCallTail(pos ast.Position, name string) (ast.Expression, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	fc := &ast.FunctionCall{Position: pos, Name: name}
	if p.tryPunct("*") {
		fc.Star = true
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return fc, nil
	}
	if p.isPunct(")") {
		p.advance()
		return fc, nil
	}
	fc.Distinct = p.tryKeyword("DISTINCT")
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		fc.Args = append(fc.Args, e)
		if !p.tryPunct(",") {
			break
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return fc, nil
}

func (p *Parser) parseListLiteral() (ast.Expression, error) {
	pos := p.pos2()
	if _, err := p.expectPunct("["); err != nil {
		return nil, err
	}
	l := &ast.ListLiteral{Position: pos}
	if !p.isPunct("]") {
		for {
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, e)
			if !p.tryPunct(",") {
				break
			}
		}
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return l, nil
}

func (p *Parser) parseMapLiteral() (*ast.MapLiteral, error) {
	pos := p.pos2()
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	m := &ast.MapLiteral{Position: pos}
	if !p.isPunct("}") {
		for {
			key, err := p.parseName()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(":"); err != nil {
				return nil, err
			}
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			m.Entries = append(m.Entries, ast.MapEntry{Key: key, Value: val})
			if !p.tryPunct(",") {
				break
			}
		}
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Parser) parseCaseExpr() (ast.Expression, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("CASE"); err != nil {
		return nil, err
	}
	c := &ast.CaseExpr{Position: pos}
	if !p.isKeyword("WHEN") {
		test, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Test = test
	}
	for p.isKeyword("WHEN") {
		p.advance()
		when, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, ast.CaseWhen{When: when, Then: then})
	}
	if p.tryKeyword("ELSE") {
		def, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Default = def
	}
	if _, err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return c, nil
}

// parseExistsExpr parses `EXISTS ( pattern )`, an existential
// sub-pattern predicate.
func (p *Parser) parseExistsExpr() (ast.Expression, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("EXISTS"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	pat, err := p.parsePathPattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.PatternExpr{Position: pos, Path: pat}, nil
}

// parseQuantifierExpr parses `ALL|ANY|NONE|SINGLE(var IN list WHERE pred)`.
func (p *Parser) parseQuantifierExpr(kind string) (ast.Expression, error) {
	pos := p.pos2()
	p.advance() // consume the quantifier keyword/ident
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	variable, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("IN"); err != nil {
		return nil, err
	}
	list, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	pred, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.QuantifierExpr{Position: pos, Kind: kind, Variable: variable, InList: list, Predicate: pred}, nil
}
