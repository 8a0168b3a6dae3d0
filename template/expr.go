package template

import (
	"fmt"
	"strings"
)

// Expr is a boolean expression over feature flag names, as written in
// #if and #elseif directives. Supported forms: flag references, !, &&,
// || and parentheses. ! binds tighter than &&, which binds tighter
// than ||.
type Expr interface {
	// Eval reports whether the expression holds for the given flag
	// lookup. Unknown flags evaluate to false, never an error.
	Eval(has func(string) bool) bool

	// String renders the expression in directive source form.
	String() string
}

// FlagExpr references a single flag by name.
type FlagExpr struct {
	Name string
}

// NotExpr negates its operand.
type NotExpr struct {
	X Expr
}

// AndExpr is the conjunction of two expressions.
type AndExpr struct {
	X, Y Expr
}

// OrExpr is the disjunction of two expressions.
type OrExpr struct {
	X, Y Expr
}

func (e *FlagExpr) Eval(has func(string) bool) bool { return has(e.Name) }
func (e *NotExpr) Eval(has func(string) bool) bool  { return !e.X.Eval(has) }
func (e *AndExpr) Eval(has func(string) bool) bool  { return e.X.Eval(has) && e.Y.Eval(has) }
func (e *OrExpr) Eval(has func(string) bool) bool   { return e.X.Eval(has) || e.Y.Eval(has) }

func (e *FlagExpr) String() string { return e.Name }

func (e *NotExpr) String() string {
	switch e.X.(type) {
	case *AndExpr, *OrExpr:
		return "!(" + e.X.String() + ")"
	}
	return "!" + e.X.String()
}

func (e *AndExpr) String() string {
	return andOperand(e.X) + " && " + andOperand(e.Y)
}

func (e *OrExpr) String() string {
	return e.X.String() + " || " + e.Y.String()
}

// andOperand parenthesizes operands that bind looser than &&.
func andOperand(e Expr) string {
	if _, ok := e.(*OrExpr); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// ParseExpr parses a flag expression in directive source form.
func ParseExpr(src string) (Expr, error) {
	p := &exprParser{src: src}
	expr, err := p.or()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("unexpected %q after expression", p.src[p.pos:])
	}
	return expr, nil
}

// exprParser is a recursive descent parser over a single directive line.
type exprParser struct {
	src string
	pos int
}

// or parses || expressions.
func (p *exprParser) or() (Expr, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.matchOp("||") {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &OrExpr{X: left, Y: right}
	}
	return left, nil
}

// and parses && expressions.
func (p *exprParser) and() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.matchOp("&&") {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &AndExpr{X: left, Y: right}
	}
	return left, nil
}

// unary parses ! prefixes.
func (p *exprParser) unary() (Expr, error) {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '!' {
		// Reject "!=": there is no equality operator in flag expressions.
		if p.pos+1 < len(p.src) && p.src[p.pos+1] == '=' {
			return nil, fmt.Errorf("unexpected %q", "!=")
		}
		p.pos++
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{X: operand}, nil
	}
	return p.primary()
}

// primary parses flag references and parenthesized groups.
func (p *exprParser) primary() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	if p.src[p.pos] == '(' {
		p.pos++
		expr, err := p.or()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return expr, nil
	}
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("unexpected character %q", rune(p.src[p.pos]))
	}
	return &FlagExpr{Name: name}, nil
}

// matchOp consumes op if it appears next (after optional spaces).
func (p *exprParser) matchOp(op string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], op) {
		p.pos += len(op)
		return true
	}
	return false
}

// ident consumes a flag identifier: [A-Za-z_][A-Za-z0-9_]*.
func (p *exprParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		isAlpha := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
		isDigit := c >= '0' && c <= '9'
		if !isAlpha && !(isDigit && p.pos > start) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}
