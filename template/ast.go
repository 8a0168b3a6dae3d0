package template

// Node is one element of a parsed template document.
//
// The parser produces a tree: verbatim text runs, conditional chains, and
// symbol declarations. Include directives are normally consumed during
// [Load] splicing and never reach the parser; an [Include] node appears
// only when parsing a document that was built without include resolution.
type Node interface {
	node()
}

// Text is a run of consecutive verbatim source lines. The compiler never
// reinterprets text content; placeholders and annotation markers inside
// surviving text are substituted by the resolution pass, everything else
// passes through byte for byte.
type Text struct {
	Lines []Line
}

// Include is an include directive that was not spliced at load time.
type Include struct {
	Target string // the quoted path as written
	Line   Line   // the directive line
}

// If is a conditional chain: one or more condition+body arms plus an
// optional else body. Exactly one arm (or the else body) survives flag
// evaluation.
type If struct {
	Arms []Arm
	Else []Node
	Line Line // the opening #if line
}

// Arm is a single condition+body pair of an If chain.
type Arm struct {
	Cond Expr
	Body []Node
	Line Line // the #if or #elseif line
}

// Decl declares a symbol: either a plain flag promotion or a
// counter-backed slot scope.
type Decl struct {
	Name    string
	Counter *CounterSpec // nil for plain declarations
	Line    Line
}

// CounterSpec seeds a scope's slot counter. The first value drawn is
// Base; each draw advances by Step.
type CounterSpec struct {
	Base int
	Step int
}

func (*Text) node()    {}
func (*Include) node() {}
func (*If) node()      {}
func (*Decl) node()    {}
