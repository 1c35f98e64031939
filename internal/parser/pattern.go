package parser

import (
	"github.com/ritamzico/cyquery/internal/ast"
	"github.com/ritamzico/cyquery/internal/lexer"
)

// parsePathPattern parses `(variable =)? nodePattern (step)*`.
func (p *Parser) parsePathPattern() (ast.PathPattern, error) {
	pos := p.pos2()
	variable := ""
	if p.cur().Kind == lexer.Ident && p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Raw == "=" {
		variable, _ = p.parseName()
		p.advance() // consume '='
	}

	start, err := p.parseNodePattern()
	if err != nil {
		return ast.PathPattern{}, err
	}
	pp := ast.PathPattern{Position: pos, Variable: variable, Start: start}

	for p.isPunct("-") || p.isPunct("<-") {
		step, err := p.parsePathStep()
		if err != nil {
			return ast.PathPattern{}, err
		}
		pp.Steps = append(pp.Steps, step)
	}
	return pp, nil
}

func (p *Parser) parseNodePattern() (ast.NodePattern, error) {
	pos := p.pos2()
	if _, err := p.expectPunct("("); err != nil {
		return ast.NodePattern{}, err
	}
	n := ast.NodePattern{Position: pos}

	if p.cur().Kind == lexer.Ident {
		n.Variable, _ = p.parseName()
	}
	for p.tryPunct(":") {
		label, err := p.parseName()
		if err != nil {
			return ast.NodePattern{}, err
		}
		n.Labels = append(n.Labels, label)
	}
	if p.isPunct("{") {
		m, err := p.parseMapLiteral()
		if err != nil {
			return ast.NodePattern{}, err
		}
		n.Properties = m
	}
	if _, err := p.expectPunct(")"); err != nil {
		return ast.NodePattern{}, err
	}
	return n, nil
}

// parsePathStep parses one `-[rel]-`, `-[rel]->`, or `<-[rel]-` hop
// followed by the node pattern it lands on. The lexer's Punct rule
// greedily matches "->" and "<-" as single tokens (they're listed before
// the bare-character class in its alternation), so the arrow connectors
// are consumed as combined tokens, not as separate "<"/"-"/">" tokens.
func (p *Parser) parsePathStep() (ast.PathStep, error) {
	leftArrow := false
	if p.isPunct("<-") {
		p.advance()
		leftArrow = true
	} else if _, err := p.expectPunct("-"); err != nil {
		return ast.PathStep{}, err
	}

	rel := ast.RelPattern{Position: p.pos2()}
	if p.tryPunct("[") {
		rel.Position = p.pos2()
		if p.cur().Kind == lexer.Ident {
			rel.Variable, _ = p.parseName()
		}
		if p.tryPunct(":") {
			for {
				t, err := p.parseName()
				if err != nil {
					return ast.PathStep{}, err
				}
				rel.Types = append(rel.Types, t)
				if !p.tryPunct("|") {
					break
				}
			}
		}
		if p.isPunct("*") {
			rs, err := p.parseRangeSpec()
			if err != nil {
				return ast.PathStep{}, err
			}
			rel.Range = rs
		}
		if p.isPunct("{") {
			m, err := p.parseMapLiteral()
			if err != nil {
				return ast.PathStep{}, err
			}
			rel.Properties = m
		}
		if _, err := p.expectPunct("]"); err != nil {
			return ast.PathStep{}, err
		}
	}

	rightArrow := false
	if p.isPunct("->") {
		p.advance()
		rightArrow = true
	} else if _, err := p.expectPunct("-"); err != nil {
		return ast.PathStep{}, err
	}

	var dir ast.Direction
	switch {
	case leftArrow && !rightArrow:
		dir = ast.DirIn
	case rightArrow && !leftArrow:
		dir = ast.DirOut
	default:
		dir = ast.DirEither
	}

	node, err := p.parseNodePattern()
	if err != nil {
		return ast.PathStep{}, err
	}
	return ast.PathStep{Rel: rel, Direction: dir, Node: node}, nil
}

// parseRangeSpec parses `*`, `*n`, `*n..`, `*..m`, or `*n..m`.
func (p *Parser) parseRangeSpec() (*ast.RangeSpec, error) {
	if _, err := p.expectPunct("*"); err != nil {
		return nil, err
	}
	rs := &ast.RangeSpec{}
	if p.cur().Kind == lexer.Int {
		v, err := parseInt(p.advance())
		if err != nil {
			return nil, err
		}
		iv := int(v)
		rs.Min = &iv
	}
	if p.tryPunct("..") {
		if p.cur().Kind == lexer.Int {
			v, err := parseInt(p.advance())
			if err != nil {
				return nil, err
			}
			iv := int(v)
			rs.Max = &iv
		}
	} else if rs.Min != nil {
		rs.Max = rs.Min
	}
	return rs, nil
}
