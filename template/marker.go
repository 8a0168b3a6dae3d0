package template

import (
	"fmt"
	"strconv"
	"strings"
)

// MarkerKind distinguishes the two annotation marker forms.
type MarkerKind uint8

const (
	// MarkerStruct annotates a struct field that receives a location.
	MarkerStruct MarkerKind = iota
	// MarkerGlobal annotates a module-scope var that receives a
	// group/binding pair.
	MarkerGlobal
)

// Marker heads as they appear in template text.
const (
	structMarkerHead = "@loc_struct("
	globalMarkerHead = "@loc_global("
)

// Marker is a structural annotation parsed from one text line. The
// marker head carries the scope whose counter provides the numeric
// slot; everything after the annotated identifier is preserved verbatim.
//
//	@loc_struct(ATTR) position: vec3<f32>,
//	@loc_struct(ATTR) @builtin(position) clip: vec4<f32>,
//	@loc_global(MAT) var<uniform> material: Material;
//	@loc_global(CONST) var<push_constant> constants: Push;
type Marker struct {
	Kind    MarkerKind
	Scope   string
	Builtin string // struct markers: builtin name, "" for plain fields
	VarTag  string // global markers: content of var<...>, "" if absent
	Name    string // the annotated identifier
	Rest    string // remainder of the line after Name, verbatim
	Indent  string // leading whitespace of the line
}

// IsPushConstant reports whether a global marker declares push-constant
// storage. Push constants receive no group/binding pair and consume no
// slot.
func (m *Marker) IsPushConstant() bool {
	return m.Kind == MarkerGlobal && strings.TrimSpace(m.VarTag) == "push_constant"
}

// FormatLocation renders a plain struct marker with its allocated
// location.
func (m *Marker) FormatLocation(loc int) string {
	return m.Indent + "@location(" + strconv.Itoa(loc) + ") " + m.Name + m.Rest
}

// FormatBuiltin renders a builtin struct marker. Builtins bypass
// location allocation entirely.
func (m *Marker) FormatBuiltin() string {
	return m.Indent + "@builtin(" + m.Builtin + ") " + m.Name + m.Rest
}

// FormatBinding renders a global marker with its allocated group and
// binding.
func (m *Marker) FormatBinding(group, binding int) string {
	var tag string
	if m.VarTag != "" {
		tag = "<" + m.VarTag + ">"
	}
	return m.Indent + "@group(" + strconv.Itoa(group) + ") @binding(" + strconv.Itoa(binding) + ") var" + tag + " " + m.Name + m.Rest
}

// FormatPushConstant renders a push-constant global marker.
func (m *Marker) FormatPushConstant() string {
	return m.Indent + "var<push_constant> " + m.Name + m.Rest
}

// ParseMarker recognizes and parses an annotation marker line. The
// second result reports whether the line carries a marker head at all;
// a recognized head with malformed remainder returns an error.
func ParseMarker(text string) (*Marker, bool, error) {
	indent := text[:len(text)-len(strings.TrimLeft(text, " \t"))]
	s := text[len(indent):]

	var kind MarkerKind
	var head string
	switch {
	case strings.HasPrefix(s, structMarkerHead):
		kind, head = MarkerStruct, structMarkerHead
	case strings.HasPrefix(s, globalMarkerHead):
		kind, head = MarkerGlobal, globalMarkerHead
	default:
		return nil, false, nil
	}

	m := &Marker{Kind: kind, Indent: indent}
	s = s[len(head):]

	n := scanIdent(s)
	if n == 0 || n >= len(s) || s[n] != ')' {
		return nil, true, fmt.Errorf("expected scope name in %s...)", head)
	}
	m.Scope = s[:n]
	s = skipSpace(s[n+1:])

	if kind == MarkerStruct {
		if err := m.parseStructTail(s); err != nil {
			return nil, true, err
		}
		return m, true, nil
	}
	if err := m.parseGlobalTail(s); err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// parseStructTail parses [@builtin(B)] IDENT rest.
func (m *Marker) parseStructTail(s string) error {
	const builtinHead = "@builtin("
	if strings.HasPrefix(s, builtinHead) {
		s = s[len(builtinHead):]
		n := scanIdent(s)
		if n == 0 || n >= len(s) || s[n] != ')' {
			return fmt.Errorf("expected builtin name in %s...)", builtinHead)
		}
		m.Builtin = s[:n]
		s = skipSpace(s[n+1:])
	}
	n := scanIdent(s)
	if n == 0 {
		return fmt.Errorf("expected field name after @loc_struct marker")
	}
	m.Name = s[:n]
	m.Rest = s[n:]
	return nil
}

// parseGlobalTail parses var[<TAG>] IDENT rest.
func (m *Marker) parseGlobalTail(s string) error {
	if !strings.HasPrefix(s, "var") {
		return fmt.Errorf("expected var after @loc_global marker")
	}
	s = s[len("var"):]
	switch {
	case len(s) > 0 && s[0] == '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return fmt.Errorf("missing %q after var<", ">")
		}
		m.VarTag = s[1:end]
		s = skipSpace(s[end+1:])
	case len(s) > 0 && (s[0] == ' ' || s[0] == '\t'):
		s = skipSpace(s)
	default:
		return fmt.Errorf("expected var or var<...> after @loc_global marker")
	}
	n := scanIdent(s)
	if n == 0 {
		return fmt.Errorf("expected variable name after @loc_global marker")
	}
	m.Name = s[:n]
	m.Rest = s[n:]
	return nil
}

// ExpandPlaceholders replaces every #{NAME} token in text using resolve.
// Sequences that do not form a well-shaped placeholder pass through
// verbatim.
func ExpandPlaceholders(text string, resolve func(name string) (int, error)) (string, error) {
	if !strings.Contains(text, "#{") {
		return text, nil
	}
	var sb strings.Builder
	for {
		i := strings.Index(text, "#{")
		if i < 0 {
			sb.WriteString(text)
			return sb.String(), nil
		}
		n := scanIdent(text[i+2:])
		if n == 0 || i+2+n >= len(text) || text[i+2+n] != '}' {
			sb.WriteString(text[:i+2])
			text = text[i+2:]
			continue
		}
		value, err := resolve(text[i+2 : i+2+n])
		if err != nil {
			return "", err
		}
		sb.WriteString(text[:i])
		sb.WriteString(strconv.Itoa(value))
		text = text[i+3+n:]
	}
}

// skipSpace trims leading spaces and tabs.
func skipSpace(s string) string {
	return strings.TrimLeft(s, " \t")
}
