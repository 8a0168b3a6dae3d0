package tshader

import (
	"fmt"
	"slices"
	"strings"
)

// Attribute describes one struct member recorded from a struct-field
// marker: either an assigned vertex/fragment location or a builtin.
type Attribute struct {
	Name     string // struct member name
	Scope    string // counter scope the location was drawn from
	Location int    // assigned @location index, -1 for builtins
	Builtin  string // builtin name for @builtin members, "" otherwise
}

// Resource describes one bound global recorded from a global marker.
type Resource struct {
	Name         string
	Scope        string // counter scope the binding was drawn from
	Group        int    // assigned @group index, -1 for push constants
	Binding      int    // assigned @binding index, -1 for push constants
	Tag          string // address space tag inside var<...>, "" for plain var
	PushConstant bool
}

// Reflection is the table of locations and bindings assigned while
// compiling one variant. Attributes and Resources are in document
// order. A Reflection is immutable after compilation; it is shared
// between all callers that receive the same cached variant.
type Reflection struct {
	Attributes []Attribute
	Resources  []Resource

	attrIndex map[string]int
	resIndex  map[string]int
	slots     map[string][]int
}

func newReflection() *Reflection {
	return &Reflection{
		attrIndex: make(map[string]int),
		resIndex:  make(map[string]int),
		slots:     make(map[string][]int),
	}
}

func (r *Reflection) declareScope(name string) {
	if _, ok := r.slots[name]; !ok {
		r.slots[name] = nil
	}
}

func (r *Reflection) addSlot(scope string, value int) {
	r.slots[scope] = append(r.slots[scope], value)
}

func (r *Reflection) addAttribute(a Attribute) {
	r.attrIndex[a.Name] = len(r.Attributes)
	r.Attributes = append(r.Attributes, a)
}

func (r *Reflection) addResource(res Resource) {
	r.resIndex[res.Name] = len(r.Resources)
	r.Resources = append(r.Resources, res)
}

// Attribute returns the recorded attribute with the given member name.
func (r *Reflection) Attribute(name string) (Attribute, bool) {
	i, ok := r.attrIndex[name]
	if !ok {
		return Attribute{}, false
	}
	return r.Attributes[i], true
}

// Resource returns the recorded resource with the given variable name.
func (r *Reflection) Resource(name string) (Resource, bool) {
	i, ok := r.resIndex[name]
	if !ok {
		return Resource{}, false
	}
	return r.Resources[i], true
}

// Scopes returns the names of all counter scopes declared while
// compiling the variant, sorted.
func (r *Reflection) Scopes() []string {
	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ScopeSlots returns every value drawn from the named scope's counter,
// in draw order. The result is a copy; the scope of a dead branch, or
// an unknown scope, yields nil.
func (r *Reflection) ScopeSlots(scope string) []int {
	return slices.Clone(r.slots[scope])
}

// String renders the table one entry per line, in document order.
func (r *Reflection) String() string {
	var b strings.Builder
	for _, a := range r.Attributes {
		if a.Builtin != "" {
			fmt.Fprintf(&b, "@builtin(%s) %s\n", a.Builtin, a.Name)
			continue
		}
		fmt.Fprintf(&b, "@location(%d) %s\n", a.Location, a.Name)
	}
	for _, res := range r.Resources {
		if res.PushConstant {
			fmt.Fprintf(&b, "var<push_constant> %s\n", res.Name)
			continue
		}
		fmt.Fprintf(&b, "@group(%d) @binding(%d) %s\n", res.Group, res.Binding, res.Name)
	}
	return b.String()
}
