package parser

import (
	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/lexer"
)

// parseQuery parses the clause sequence that makes up a Query: any mix of
// reading and writing clauses, optionally terminated by RETURN.
func (p *Parser) parseQuery() (*ast.Query, error) {
	pos := p.pos2()
	q := &ast.Query{Position: pos}

	for {
		switch {
		case p.isKeyword("MATCH") || p.isKeyword("OPTIONAL"):
			c, err := p.parseMatchClause()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)

		case p.isKeyword("UNWIND"):
			c, err := p.parseUnwindClause()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)

		case p.isKeyword("WITH"):
			c, err := p.parseWithClause()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)

		case p.isKeyword("CREATE"):
			c, err := p.parseCreateClause()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)

		case p.isKeyword("MERGE"):
			c, err := p.parseMergeClause()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)

		case p.isKeyword("DELETE") || p.isKeyword("DETACH"):
			c, err := p.parseDeleteClause()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)

		case p.isKeyword("SET"):
			c, err := p.parseSetClause()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)

		case p.isKeyword("REMOVE"):
			c, err := p.parseRemoveClause()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)

		case p.isKeyword("CALL"):
			c, err := p.parseCallClause()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)

		case p.isKeyword("RETURN"):
			r, err := p.parseReturnClause()
			if err != nil {
				return nil, err
			}
			q.Return = r
			return q, nil

		default:
			if len(q.Clauses) == 0 {
				return nil, p.errorf("expected a clause, got %q", p.cur().Raw)
			}
			return q, nil
		}
	}
}

func (p *Parser) parseMatchClause() (*ast.MatchClause, error) {
	pos := p.pos2()
	optional := p.tryKeyword("OPTIONAL")
	if _, err := p.expectKeyword("MATCH"); err != nil {
		return nil, err
	}
	m := &ast.MatchClause{Position: pos, Optional: optional}

	for {
		pat, err := p.parsePathPattern()
		if err != nil {
			return nil, err
		}
		m.Patterns = append(m.Patterns, pat)
		if !p.tryPunct(",") {
			break
		}
	}

	if p.tryKeyword("WHERE") {
		where, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		m.Where = where
	}

	return m, nil
}

func (p *Parser) parseUnwindClause() (*ast.UnwindClause, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("UNWIND"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	return &ast.UnwindClause{Position: pos, Expr: expr, Variable: name}, nil
}

// parseProjectionBody parses the shared `item (, item)* (ORDER BY ...)?
// (SKIP n)? (LIMIT n)?` tail used by both RETURN and WITH.
func (p *Parser) parseProjectionBody() (star bool, items []ast.ReturnItem, orderBy []ast.SortItem, skip, limit ast.Expression, err error) {
	if p.tryPunct("*") {
		star = true
	} else {
		for {
			it, ierr := p.parseReturnItem()
			if ierr != nil {
				err = ierr
				return
			}
			items = append(items, it)
			if !p.tryPunct(",") {
				break
			}
		}
	}

	if p.tryKeyword("ORDER") {
		if _, berr := p.expectKeyword("BY"); berr != nil {
			err = berr
			return
		}
		for {
			e, eerr := p.parseExpression()
			if eerr != nil {
				err = eerr
				return
			}
			desc := false
			if p.tryKeyword("DESC") {
				desc = true
			} else {
				p.tryKeyword("ASC")
			}
			orderBy = append(orderBy, ast.SortItem{Expr: e, Descending: desc})
			if !p.tryPunct(",") {
				break
			}
		}
	}

	if p.tryKeyword("SKIP") {
		skip, err = p.parseExpression()
		if err != nil {
			return
		}
	}
	if p.tryKeyword("LIMIT") {
		limit, err = p.parseExpression()
		if err != nil {
			return
		}
	}
	return
}

func (p *Parser) parseReturnItem() (ast.ReturnItem, error) {
	e, err := p.parseExpression()
	if err != nil {
		return ast.ReturnItem{}, err
	}
	alias := ""
	if p.tryKeyword("AS") {
		alias, err = p.parseName()
		if err != nil {
			return ast.ReturnItem{}, err
		}
	}
	return ast.ReturnItem{Expr: e, Alias: alias}, nil
}

func (p *Parser) parseReturnClause() (*ast.ReturnClause, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("RETURN"); err != nil {
		return nil, err
	}
	distinct := p.tryKeyword("DISTINCT")
	star, items, orderBy, skip, limit, err := p.parseProjectionBody()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnClause{
		Position: pos, Distinct: distinct, Star: star, Items: items,
		OrderBy: orderBy, Skip: skip, Limit: limit,
	}, nil
}

func (p *Parser) parseWithClause() (*ast.WithClause, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("WITH"); err != nil {
		return nil, err
	}
	distinct := p.tryKeyword("DISTINCT")
	star, items, orderBy, skip, limit, err := p.parseProjectionBody()
	if err != nil {
		return nil, err
	}
	w := &ast.WithClause{
		Position: pos, Distinct: distinct, Star: star, Items: items,
		OrderBy: orderBy, Skip: skip, Limit: limit,
	}
	if p.tryKeyword("WHERE") {
		where, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		w.Where = where
	}
	return w, nil
}

func (p *Parser) parseCreateClause() (*ast.CreateClause, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	c := &ast.CreateClause{Position: pos}
	for {
		pat, err := p.parsePathPattern()
		if err != nil {
			return nil, err
		}
		c.Patterns = append(c.Patterns, pat)
		if !p.tryPunct(",") {
			break
		}
	}
	return c, nil
}

func (p *Parser) parseMergeClause() (*ast.MergeClause, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("MERGE"); err != nil {
		return nil, err
	}
	pat, err := p.parsePathPattern()
	if err != nil {
		return nil, err
	}
	m := &ast.MergeClause{Position: pos, Pattern: pat}

	for p.isKeyword("ON") {
		p.advance()
		onCreate := false
		if p.tryKeyword("CREATE") {
			onCreate = true
		} else if _, err := p.expectKeyword("MATCH"); err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("SET"); err != nil {
			return nil, err
		}
		items, err := p.parseSetItems()
		if err != nil {
			return nil, err
		}
		m.Actions = append(m.Actions, ast.MergeAction{OnCreate: onCreate, Set: items})
	}
	return m, nil
}

func (p *Parser) parseDeleteClause() (*ast.DeleteClause, error) {
	pos := p.pos2()
	detach := p.tryKeyword("DETACH")
	if _, err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	d := &ast.DeleteClause{Position: pos, Detach: detach}
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		d.Items = append(d.Items, e)
		if !p.tryPunct(",") {
			break
		}
	}
	return d, nil
}

func (p *Parser) parseSetItems() ([]ast.SetItem, error) {
	var items []ast.SetItem
	for {
		start := p.pos2()
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		target := ast.Expression(&ast.Variable{Position: start, Name: name})

		switch {
		case p.tryPunct("."):
			prop, err := p.parseName()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("="); err != nil {
				return nil, err
			}
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			items = append(items, ast.SetItem{Kind: ast.SetProperty, Target: target, Property: prop, Value: val})

		case p.tryPunct("+="):
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			items = append(items, ast.SetItem{Kind: ast.SetMergeMap, Target: target, Value: val})

		case p.tryPunct("="):
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			items = append(items, ast.SetItem{Kind: ast.SetReplaceMap, Target: target, Value: val})

		case p.tryPunct(":"):
			var labels []string
			for {
				l, err := p.parseName()
				if err != nil {
					return nil, err
				}
				labels = append(labels, l)
				if !p.tryPunct(":") {
					break
				}
			}
			items = append(items, ast.SetItem{Kind: ast.SetLabel, Target: target, Labels: labels})

		default:
			return nil, p.errorf("expected '.', '=', '+=', or ':' after %q in SET", name)
		}

		if !p.tryPunct(",") {
			break
		}
	}
	return items, nil
}

func (p *Parser) parseSetClause() (*ast.SetClause, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	items, err := p.parseSetItems()
	if err != nil {
		return nil, err
	}
	return &ast.SetClause{Position: pos, Items: items}, nil
}

func (p *Parser) parseRemoveClause() (*ast.RemoveClause, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("REMOVE"); err != nil {
		return nil, err
	}
	r := &ast.RemoveClause{Position: pos}
	for {
		start := p.pos2()
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		target := ast.Expression(&ast.Variable{Position: start, Name: name})

		if p.tryPunct(".") {
			prop, err := p.parseName()
			if err != nil {
				return nil, err
			}
			r.Items = append(r.Items, ast.RemoveItem{Target: target, Property: prop})
		} else if p.tryPunct(":") {
			label, err := p.parseName()
			if err != nil {
				return nil, err
			}
			r.Items = append(r.Items, ast.RemoveItem{IsLabel: true, Target: target, Label: label})
		} else {
			return nil, p.errorf("expected '.' or ':' after %q in REMOVE", name)
		}

		if !p.tryPunct(",") {
			break
		}
	}
	return r, nil
}

func (p *Parser) parseCallClause() (*ast.CallClause, error) {
	pos := p.pos2()
	if _, err := p.expectKeyword("CALL"); err != nil {
		return nil, err
	}
	name, err := p.parseProcedureName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.Expression
	if !p.isPunct(")") {
		for {
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if !p.tryPunct(",") {
				break
			}
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	c := &ast.CallClause{Position: pos, Procedure: name, Args: args}

	if p.tryKeyword("YIELD") {
		for {
			field, err := p.parseName()
			if err != nil {
				return nil, err
			}
			alias := ""
			if p.tryKeyword("AS") {
				alias, err = p.parseName()
				if err != nil {
					return nil, err
				}
			}
			c.Yield = append(c.Yield, ast.YieldItem{Field: field, Alias: alias})
			if !p.tryPunct(",") {
				break
			}
		}
	}
	return c, nil
}

// parseProcedureName accepts dotted names like db.stats.
func (p *Parser) parseProcedureName() (string, error) {
	name, err := p.parseName()
	if err != nil {
		return "", err
	}
	for p.isPunct(".") {
		p.advance()
		part, err := p.parseName()
		if err != nil {
			return "", err
		}
		name += "." + part
	}
	return name, nil
}

func (p *Parser) parseSchemaStatement() (*ast.SchemaStatement, error) {
	pos := p.pos2()

	if p.tryKeyword("DROP") {
		if p.tryKeyword("INDEX") {
			name, err := p.parseName()
			if err != nil {
				return nil, err
			}
			return &ast.SchemaStatement{Position: pos, Kind: ast.DropIndex, Name: name}, nil
		}
		if _, err := p.expectKeyword("CONSTRAINT"); err != nil {
			return nil, err
		}
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		return &ast.SchemaStatement{Position: pos, Kind: ast.DropConstraint, Name: name}, nil
	}

	if _, err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}

	if p.tryKeyword("INDEX") {
		name := ""
		if p.cur().Kind == lexer.Ident {
			name, _ = p.parseName()
		}
		if p.tryKeyword("FOR") {
			return p.parseModernIndexForm(pos, name)
		}
		return p.parseLegacyIndexForm(pos, name)
	}

	if _, err := p.expectKeyword("CONSTRAINT"); err != nil {
		return nil, err
	}
	name := ""
	if p.cur().Kind == lexer.Ident {
		name, _ = p.parseName()
	}
	if _, err := p.expectKeyword("FOR"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	if _, err := p.parseName(); err != nil { // bound variable, unused beyond scoping the label
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	label, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("REQUIRE"); err != nil {
		return nil, err
	}
	var props []string
	if p.isPunct("(") {
		if props, err = p.parseRequiredPropertyList(); err != nil {
			return nil, err
		}
	} else {
		if _, err := p.parseName(); err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("."); err != nil {
			return nil, err
		}
		prop, err := p.parseName()
		if err != nil {
			return nil, err
		}
		props = []string{prop}
	}
	if _, err := p.expectKeyword("IS"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("UNIQUE"); err != nil {
		return nil, err
	}
	return &ast.SchemaStatement{Position: pos, Kind: ast.CreateConstraint, Name: name, Label: label, Properties: props, Unique: true}, nil
}

// parseModernIndexForm parses `FOR (n:Label) ON (n.prop, ...)`.
func (p *Parser) parseModernIndexForm(pos ast.Position, name string) (*ast.SchemaStatement, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	if _, err := p.parseName(); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	label, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	props, err := p.parseRequiredPropertyList()
	if err != nil {
		return nil, err
	}
	return &ast.SchemaStatement{Position: pos, Kind: ast.CreateIndex, Name: name, Label: label, Properties: props}, nil
}

// parseLegacyIndexForm parses `ON :Label(prop, ...)`.
func (p *Parser) parseLegacyIndexForm(pos ast.Position, name string) (*ast.SchemaStatement, error) {
	if _, err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	label, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var props []string
	for {
		pr, err := p.parseName()
		if err != nil {
			return nil, err
		}
		props = append(props, pr)
		if !p.tryPunct(",") {
			break
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.SchemaStatement{Position: pos, Kind: ast.CreateIndex, Name: name, Label: label, Properties: props}, nil
}

// parseRequiredPropertyList parses `(n.prop, n.prop2, ...)`, dropping the
// variable prefix since within a single statement it's always the one
// bound label's variable.
func (p *Parser) parseRequiredPropertyList() ([]string, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var props []string
	for {
		if _, err := p.parseName(); err != nil { // variable
			return nil, err
		}
		if _, err := p.expectPunct("."); err != nil {
			return nil, err
		}
		prop, err := p.parseName()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
		if !p.tryPunct(",") {
			break
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return props, nil
}
