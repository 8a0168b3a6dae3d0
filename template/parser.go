package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Directive lines start with this prefix after optional indentation. The
// prefix reads as a comment in the underlying shader language, so
// templates stay viewable with ordinary tooling.
const directivePrefix = "///#"

// Parse builds the directive tree of a spliced document.
//
// Text runs are preserved verbatim. Conditional chains nest arbitrarily;
// a conditional directive without its opener, or an if left open at end
// of document, fails with [ErrUnbalancedConditional].
func Parse(doc *Document) ([]Node, error) {
	p := &parser{}
	for _, ln := range doc.Lines {
		if err := p.line(ln); err != nil {
			return nil, err
		}
	}
	return p.finish()
}

// parser accumulates nodes while tracking open conditional frames.
type parser struct {
	root   []Node
	frames []*frame
	text   []Line // pending verbatim run
}

// frame is one open if chain.
type frame struct {
	open     Line // the #if line
	arms     []Arm
	cond     Expr // current arm condition, meaningless once inElse
	condLine Line
	inElse   bool
	body     []Node
}

func (p *parser) line(ln Line) error {
	keyword, rest, ok := splitDirective(ln.Text)
	if !ok {
		p.text = append(p.text, ln)
		return nil
	}
	p.flushText()

	switch keyword {
	case "include":
		target, err := parseIncludeTarget(rest)
		if err != nil {
			return errorf(ErrDirectiveSyntax, ln.Path, ln.Num, "malformed include: %v", err)
		}
		p.append(&Include{Target: target, Line: ln})

	case "if":
		cond, err := ParseExpr(rest)
		if err != nil {
			return errorf(ErrDirectiveSyntax, ln.Path, ln.Num, "invalid condition: %v", err)
		}
		p.frames = append(p.frames, &frame{open: ln, cond: cond, condLine: ln})

	case "elseif":
		f := p.top()
		if f == nil {
			return errorf(ErrUnbalancedConditional, ln.Path, ln.Num, "elseif without matching if")
		}
		if f.inElse {
			return errorf(ErrUnbalancedConditional, ln.Path, ln.Num, "elseif after else")
		}
		cond, err := ParseExpr(rest)
		if err != nil {
			return errorf(ErrDirectiveSyntax, ln.Path, ln.Num, "invalid condition: %v", err)
		}
		f.closeArm()
		f.cond = cond
		f.condLine = ln

	case "else":
		f := p.top()
		if f == nil {
			return errorf(ErrUnbalancedConditional, ln.Path, ln.Num, "else without matching if")
		}
		if f.inElse {
			return errorf(ErrUnbalancedConditional, ln.Path, ln.Num, "duplicate else")
		}
		if rest != "" {
			return errorf(ErrDirectiveSyntax, ln.Path, ln.Num, "unexpected %q after else", rest)
		}
		f.closeArm()
		f.inElse = true

	case "endif":
		f := p.top()
		if f == nil {
			return errorf(ErrUnbalancedConditional, ln.Path, ln.Num, "endif without matching if")
		}
		if rest != "" {
			return errorf(ErrDirectiveSyntax, ln.Path, ln.Num, "unexpected %q after endif", rest)
		}
		node := &If{Line: f.open}
		if f.inElse {
			node.Else = f.body
		} else {
			f.closeArm()
		}
		node.Arms = f.arms
		p.frames = p.frames[:len(p.frames)-1]
		p.append(node)

	case "decl":
		decl, err := parseDecl(rest, ln)
		if err != nil {
			return err
		}
		p.append(decl)

	case "":
		return errorf(ErrDirectiveSyntax, ln.Path, ln.Num, "missing directive keyword")

	default:
		return errorf(ErrDirectiveSyntax, ln.Path, ln.Num, "unknown directive %q", keyword)
	}
	return nil
}

func (p *parser) finish() ([]Node, error) {
	p.flushText()
	if f := p.top(); f != nil {
		return nil, errorf(ErrUnbalancedConditional, f.open.Path, f.open.Num,
			"unterminated if (missing endif)")
	}
	return p.root, nil
}

func (p *parser) top() *frame {
	if len(p.frames) == 0 {
		return nil
	}
	return p.frames[len(p.frames)-1]
}

// append adds a node to the innermost open body.
func (p *parser) append(n Node) {
	if f := p.top(); f != nil {
		f.body = append(f.body, n)
		return
	}
	p.root = append(p.root, n)
}

func (p *parser) flushText() {
	if len(p.text) == 0 {
		return
	}
	p.append(&Text{Lines: p.text})
	p.text = nil
}

// closeArm finishes the current condition+body pair.
func (f *frame) closeArm() {
	f.arms = append(f.arms, Arm{Cond: f.cond, Body: f.body, Line: f.condLine})
	f.body = nil
}

// splitDirective reports whether a line is a directive, splitting it into
// keyword and trimmed argument text.
func splitDirective(text string) (keyword, rest string, ok bool) {
	s := strings.TrimLeft(text, " \t")
	if !strings.HasPrefix(s, directivePrefix) {
		return "", "", false
	}
	s = strings.TrimLeft(s[len(directivePrefix):], " \t")
	n := scanIdent(s)
	return s[:n], strings.TrimSpace(s[n:]), true
}

// parseIncludeTarget extracts the quoted path of an include directive.
func parseIncludeTarget(rest string) (string, error) {
	if len(rest) < 2 || rest[0] != '"' {
		return "", fmt.Errorf("expected quoted path, got %q", rest)
	}
	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return "", fmt.Errorf("missing closing quote in %q", rest)
	}
	target := rest[1 : 1+end]
	if target == "" {
		return "", fmt.Errorf("empty include path")
	}
	if tail := strings.TrimSpace(rest[2+end:]); tail != "" {
		return "", fmt.Errorf("unexpected %q after include path", tail)
	}
	return target, nil
}

// parseDecl parses the argument of a decl directive:
//
//	NAME
//	NAME = _atomic_counter(base, step)
func parseDecl(rest string, ln Line) (*Decl, error) {
	bad := func(format string, args ...any) error {
		return errorf(ErrDirectiveSyntax, ln.Path, ln.Num, "malformed decl: "+format, args...)
	}

	n := scanIdent(rest)
	if n == 0 {
		return nil, bad("expected symbol name, got %q", rest)
	}
	name := rest[:n]
	s := strings.TrimSpace(rest[n:])
	if s == "" {
		return &Decl{Name: name, Line: ln}, nil
	}
	return parseDeclSpec(name, s, ln, bad)
}

func parseDeclSpec(name, s string, ln Line, bad func(string, ...any) error) (*Decl, error) {
	if s[0] != '=' {
		return nil, bad("expected %q, got %q", "=", s)
	}
	s = strings.TrimSpace(s[1:])
	const fn = "_atomic_counter"
	if !strings.HasPrefix(s, fn) {
		return nil, bad("unknown counter function in %q", s)
	}
	s = strings.TrimSpace(s[len(fn):])
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, bad("expected %s(base, step)", fn)
	}
	args := strings.Split(s[1:len(s)-1], ",")
	if len(args) != 2 {
		return nil, bad("expected 2 counter arguments, got %d", len(args))
	}
	base, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || base < 0 {
		return nil, bad("counter base must be a non-negative integer, got %q", strings.TrimSpace(args[0]))
	}
	step, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil || step < 1 {
		return nil, bad("counter step must be a positive integer, got %q", strings.TrimSpace(args[1]))
	}
	return &Decl{Name: name, Counter: &CounterSpec{Base: base, Step: step}, Line: ln}, nil
}

// scanIdent returns the length of the leading identifier in s:
// [A-Za-z_][A-Za-z0-9_]*.
func scanIdent(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		isAlpha := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
		isDigit := c >= '0' && c <= '9'
		if !isAlpha && !(isDigit && n > 0) {
			break
		}
		n++
	}
	return n
}
