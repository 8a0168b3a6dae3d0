package tshader

import (
	"strings"

	"github.com/gogpu/tshader/template"
)

// resolve runs the ordered allocation pass over the pruned element
// sequence: declarations seed counter scopes, markers and placeholders
// draw values from them in document order, and every surviving line is
// emitted with its final text. Returns the assembled source and the
// reflection table.
func resolve(elems []element) (string, *Reflection, error) {
	r := &resolver{
		alloc: newAllocator(),
		refl:  newReflection(),
	}
	for _, e := range elems {
		if e.decl != nil {
			if err := r.alloc.declare(e.decl); err != nil {
				return "", nil, err
			}
			if e.decl.Counter != nil {
				r.refl.declareScope(e.decl.Name)
			}
			continue
		}
		text, err := r.line(e.line)
		if err != nil {
			return "", nil, err
		}
		r.out.WriteString(text)
		r.out.WriteByte('\n')
	}
	return r.out.String(), r.refl, nil
}

type resolver struct {
	alloc *allocator
	refl  *Reflection
	out   strings.Builder
}

// draw takes the next value from a scope's counter and records it in
// the reflection slot list.
func (r *resolver) draw(scope string, site template.Line) (int, error) {
	v, err := r.alloc.take(scope, site)
	if err != nil {
		return 0, err
	}
	r.refl.addSlot(scope, v)
	return v, nil
}

// line produces the final text of one surviving line: annotation
// markers are replaced in place, then any #{NAME} placeholders left in
// the text draw from their counters.
func (r *resolver) line(ln *template.Line) (string, error) {
	m, ok, err := template.ParseMarker(ln.Text)
	if err != nil {
		return "", &template.Error{
			Kind:   template.ErrDirectiveSyntax,
			Path:   ln.Path,
			Line:   ln.Num,
			Detail: err.Error(),
		}
	}

	text := ln.Text
	if ok {
		switch {
		case m.Kind == template.MarkerStruct && m.Builtin != "":
			text, err = r.builtinMarker(m, ln)
		case m.Kind == template.MarkerStruct:
			text, err = r.structMarker(m, ln)
		case m.IsPushConstant():
			text, err = r.pushConstantMarker(m, ln)
		default:
			text, err = r.globalMarker(m, ln)
		}
		if err != nil {
			return "", err
		}
	}
	return template.ExpandPlaceholders(text, func(name string) (int, error) {
		return r.draw(name, *ln)
	})
}

func (r *resolver) structMarker(m *template.Marker, ln *template.Line) (string, error) {
	loc, err := r.draw(m.Scope, *ln)
	if err != nil {
		return "", err
	}
	r.refl.addAttribute(Attribute{
		Name:     m.Name,
		Scope:    m.Scope,
		Location: loc,
	})
	return m.FormatLocation(loc), nil
}

// builtinMarker validates the scope but draws nothing: builtins carry
// no location.
func (r *resolver) builtinMarker(m *template.Marker, ln *template.Line) (string, error) {
	if _, err := r.alloc.scope(m.Scope, *ln); err != nil {
		return "", err
	}
	r.refl.addAttribute(Attribute{
		Name:     m.Name,
		Scope:    m.Scope,
		Location: -1,
		Builtin:  m.Builtin,
	})
	return m.FormatBuiltin(), nil
}

func (r *resolver) globalMarker(m *template.Marker, ln *template.Line) (string, error) {
	group, err := r.alloc.groupOf(m.Scope, *ln)
	if err != nil {
		return "", err
	}
	binding, err := r.draw(m.Scope, *ln)
	if err != nil {
		return "", err
	}
	r.refl.addResource(Resource{
		Name:    m.Name,
		Scope:   m.Scope,
		Group:   group,
		Binding: binding,
		Tag:     m.VarTag,
	})
	return m.FormatBinding(group, binding), nil
}

// pushConstantMarker validates the scope but assigns no group/binding
// and draws nothing.
func (r *resolver) pushConstantMarker(m *template.Marker, ln *template.Line) (string, error) {
	if _, err := r.alloc.scope(m.Scope, *ln); err != nil {
		return "", err
	}
	r.refl.addResource(Resource{
		Name:         m.Name,
		Scope:        m.Scope,
		Group:        -1,
		Binding:      -1,
		Tag:          m.VarTag,
		PushConstant: true,
	})
	return m.FormatPushConstant(), nil
}
