package tshader

import (
	"fmt"

	"github.com/gogpu/tshader/template"
)

// allocator assigns location and binding slots from named counter
// scopes during one compilation. Every compile starts from a fresh
// allocator; counters never live in package state.
type allocator struct {
	scopes    map[string]*scopeState
	groupNext int
}

type scopeState struct {
	spec  template.CounterSpec
	plain bool // declared without a counter; usable as a flag only
	next  int
	group int // assigned @group index, -1 until the first global marker
	seen  map[int]struct{}
}

func newAllocator() *allocator {
	return &allocator{scopes: make(map[string]*scopeState)}
}

// declare registers a surviving declaration. Redeclaring a counter
// scope with the identical (base, step) is a no-op; any mismatch, or
// mixing plain and counter-backed declarations of one name, fails with
// ErrCounterSpecConflict at the redeclaration site. The first
// declaration stays in effect.
func (a *allocator) declare(d *template.Decl) error {
	s, ok := a.scopes[d.Name]
	if !ok {
		s = &scopeState{group: -1}
		if d.Counter == nil {
			s.plain = true
		} else {
			s.spec = *d.Counter
			s.next = d.Counter.Base
			s.seen = make(map[int]struct{})
		}
		a.scopes[d.Name] = s
		return nil
	}
	switch {
	case s.plain && d.Counter == nil:
		return nil
	case s.plain:
		return conflictErr(d, fmt.Sprintf("%s redeclared as _atomic_counter(%d, %d), previously a plain flag",
			d.Name, d.Counter.Base, d.Counter.Step))
	case d.Counter == nil:
		return conflictErr(d, fmt.Sprintf("%s redeclared as a plain flag, previously _atomic_counter(%d, %d)",
			d.Name, s.spec.Base, s.spec.Step))
	case *d.Counter != s.spec:
		return conflictErr(d, fmt.Sprintf("%s redeclared as _atomic_counter(%d, %d), previously _atomic_counter(%d, %d)",
			d.Name, d.Counter.Base, d.Counter.Step, s.spec.Base, s.spec.Step))
	}
	return nil
}

func conflictErr(d *template.Decl, detail string) error {
	return &template.Error{
		Kind:   template.ErrCounterSpecConflict,
		Path:   d.Line.Path,
		Line:   d.Line.Num,
		Detail: detail,
	}
}

// scope resolves a counter scope by name for use at the given site.
// An undeclared name, or a name declared without a counter, fails with
// ErrUnknownScope.
func (a *allocator) scope(name string, site template.Line) (*scopeState, error) {
	s, ok := a.scopes[name]
	if !ok {
		return nil, &template.Error{
			Kind:   template.ErrUnknownScope,
			Path:   site.Path,
			Line:   site.Num,
			Detail: fmt.Sprintf("scope %q is not declared", name),
		}
	}
	if s.plain {
		return nil, &template.Error{
			Kind:   template.ErrUnknownScope,
			Path:   site.Path,
			Line:   site.Num,
			Detail: fmt.Sprintf("scope %q is declared without a counter", name),
		}
	}
	return s, nil
}

// take draws the next value from the named scope's counter. Values per
// scope are strictly increasing by the declared step within one
// compilation and never reused.
func (a *allocator) take(name string, site template.Line) (int, error) {
	s, err := a.scope(name, site)
	if err != nil {
		return 0, err
	}
	v := s.next
	s.next += s.spec.Step
	if _, dup := s.seen[v]; dup {
		return 0, &template.Error{
			Kind:   template.ErrDuplicateSlot,
			Path:   site.Path,
			Line:   site.Num,
			Detail: fmt.Sprintf("internal: scope %s produced value %d twice", name, v),
		}
	}
	s.seen[v] = struct{}{}
	return v, nil
}

// groupOf returns the @group index of the named scope, assigning the
// next free index on first use. Group indices follow the document order
// of each scope's first surviving global marker, starting at 0.
func (a *allocator) groupOf(name string, site template.Line) (int, error) {
	s, err := a.scope(name, site)
	if err != nil {
		return 0, err
	}
	if s.group < 0 {
		s.group = a.groupNext
		a.groupNext++
	}
	return s.group, nil
}
