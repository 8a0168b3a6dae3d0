package tshader

import (
	"fmt"

	"github.com/gogpu/tshader/template"
)

// element is one surviving item after conditional pruning: either a
// source line or a counter-backed declaration, in document order.
type element struct {
	line *template.Line
	decl *template.Decl
}

// prune evaluates conditional directives against the enabled flags and
// flattens the directive tree into the surviving sequence of source
// lines and counter declarations, in document order.
//
// Exactly one arm of each if/elseif/else chain survives: the first arm
// whose condition is true, else the else-body, else nothing. Dead
// branches contribute nothing downstream. A surviving plain declaration
// promotes its name to an enabled flag for all subsequent evaluation;
// the declaration itself still flows through so the allocator can
// reject a later counter declaration of the same name.
func prune(nodes []template.Node, flags FlagSet) ([]element, error) {
	p := &pruner{
		flags:    flags,
		promoted: make(map[string]struct{}),
	}
	if err := p.walk(nodes); err != nil {
		return nil, err
	}
	return p.out, nil
}

type pruner struct {
	flags    FlagSet
	promoted map[string]struct{}
	out      []element
}

// has reports whether a flag name is enabled, counting names promoted
// by surviving plain declarations. Counter-backed declarations do not
// promote; their names evaluate false like any unknown flag.
func (p *pruner) has(name string) bool {
	if _, ok := p.promoted[name]; ok {
		return true
	}
	return p.flags.Has(name)
}

func (p *pruner) walk(nodes []template.Node) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case *template.Text:
			for i := range n.Lines {
				p.out = append(p.out, element{line: &n.Lines[i]})
			}
		case *template.Decl:
			if n.Counter == nil {
				p.promoted[n.Name] = struct{}{}
			}
			p.out = append(p.out, element{decl: n})
		case *template.If:
			if err := p.walkIf(n); err != nil {
				return err
			}
		case *template.Include:
			// Parse keeps include directives intact when a document is
			// built without Load; compilation requires them spliced.
			return &template.Error{
				Kind:   template.ErrUnresolvedInclude,
				Path:   n.Line.Path,
				Line:   n.Line.Num,
				Detail: fmt.Sprintf("include %q was not spliced", n.Target),
			}
		default:
			return fmt.Errorf("tshader: unexpected node %T", n)
		}
	}
	return nil
}

func (p *pruner) walkIf(n *template.If) error {
	for _, arm := range n.Arms {
		if arm.Cond.Eval(p.has) {
			return p.walk(arm.Body)
		}
	}
	return p.walk(n.Else)
}
