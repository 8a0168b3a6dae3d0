package layout

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	types "github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Reflection errors. Reflect wraps these sentinels with the name of the
// offending shader interface object; match with errors.Is.
var (
	// ErrUnsupported reports a shader interface type reflection cannot
	// express as a pipeline layout.
	ErrUnsupported = errors.New("layout: unsupported shader interface type")

	// ErrMissingBinding reports a resource global without a
	// @group/@binding pair.
	ErrMissingBinding = errors.New("layout: resource global has no group/binding")
)

// Layout describes the GPU-facing interface of one compiled shader:
// entry points, bind group layout entries, vertex buffer layouts, and
// push constant ranges. It carries everything pipeline creation needs
// short of a device.
type Layout struct {
	entryPoints []EntryPoint
	groups      [][]types.BindGroupLayoutEntry
	vertex      []gputypes.VertexBufferLayout
	push        []PushConstant
}

// EntryPoint describes one shader entry point.
type EntryPoint struct {
	Name      string
	Stage     ir.ShaderStage
	Workgroup [3]uint32 // compute stage only
}

// PushConstant describes one push-constant global. Size is in bytes,
// padded to a multiple of 4.
type PushConstant struct {
	Name string
	Size uint32
}

// Reflect parses and lowers WGSL source, then derives its pipeline
// interface. Only types a bind group layout can express are accepted;
// anything else fails with ErrUnsupported.
func Reflect(source string) (*Layout, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	mod, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return reflectModule(mod)
}

func reflectModule(mod *ir.Module) (*Layout, error) {
	l := &Layout{}
	for i := range mod.EntryPoints {
		ep := &mod.EntryPoints[i]
		l.entryPoints = append(l.entryPoints, EntryPoint{
			Name:      ep.Name,
			Stage:     ep.Stage,
			Workgroup: ep.Workgroup,
		})
	}
	if err := l.collectGlobals(mod, referencedGlobals(mod)); err != nil {
		return nil, err
	}
	if err := l.collectVertexInputs(mod); err != nil {
		return nil, err
	}
	return l, nil
}

// EntryPoints returns the module's entry points in declaration order.
func (l *Layout) EntryPoints() []EntryPoint {
	return l.entryPoints
}

// EntryPoint returns the entry point for a stage.
func (l *Layout) EntryPoint(stage ir.ShaderStage) (EntryPoint, bool) {
	for _, ep := range l.entryPoints {
		if ep.Stage == stage {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

// Groups returns bind group layout entries indexed by @group. Entries
// within a group are ordered by binding. Only globals referenced by at
// least one entry point appear.
func (l *Layout) Groups() [][]types.BindGroupLayoutEntry {
	return l.groups
}

// Vertex returns one vertex buffer layout per location-bound vertex
// input, ordered by shader location. Each input is reflected as its
// own tightly packed buffer; callers merging attributes into shared
// buffers recompute strides and offsets.
func (l *Layout) Vertex() []gputypes.VertexBufferLayout {
	return l.vertex
}

// PushConstants returns the push-constant globals in declaration order.
func (l *Layout) PushConstants() []PushConstant {
	return l.push
}

// stageSet records which stages reference a global.
type stageSet struct {
	vertex   bool
	fragment bool
	compute  bool
}

func (s *stageSet) add(stage ir.ShaderStage) {
	switch stage {
	case ir.StageVertex:
		s.vertex = true
	case ir.StageFragment:
		s.fragment = true
	case ir.StageCompute:
		s.compute = true
	}
}

// referencedGlobals computes, for every global variable, the set of
// shader stages whose entry points reach it, following calls through
// the function call graph.
func referencedGlobals(mod *ir.Module) map[ir.GlobalVariableHandle]stageSet {
	direct := make([][]ir.GlobalVariableHandle, len(mod.Functions))
	calls := make([][]ir.FunctionHandle, len(mod.Functions))
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		for _, ex := range fn.Expressions {
			if gv, ok := ex.Kind.(ir.ExprGlobalVariable); ok {
				direct[i] = append(direct[i], gv.Variable)
			}
		}
		callees := make(map[ir.FunctionHandle]struct{})
		collectCallees(fn.Body, callees)
		for callee := range callees {
			calls[i] = append(calls[i], callee)
		}
	}

	vis := make(map[ir.GlobalVariableHandle]stageSet)
	for i := range mod.EntryPoints {
		ep := &mod.EntryPoints[i]
		seen := make([]bool, len(mod.Functions))
		var walk func(fh ir.FunctionHandle)
		walk = func(fh ir.FunctionHandle) {
			if int(fh) >= len(seen) || seen[fh] {
				return
			}
			seen[fh] = true
			for _, gv := range direct[fh] {
				s := vis[gv]
				s.add(ep.Stage)
				vis[gv] = s
			}
			for _, callee := range calls[fh] {
				walk(callee)
			}
		}
		// Entry point functions are inline in EntryPoints, not in
		// Module.Functions: mark their direct globals here, then walk
		// their callees through the function table.
		for _, ex := range ep.Function.Expressions {
			if gv, ok := ex.Kind.(ir.ExprGlobalVariable); ok {
				s := vis[gv.Variable]
				s.add(ep.Stage)
				vis[gv.Variable] = s
			}
		}
		callees := make(map[ir.FunctionHandle]struct{})
		collectCallees(ep.Function.Body, callees)
		for callee := range callees {
			walk(callee)
		}
	}
	return vis
}

// collectCallees records every function called from a statement tree.
func collectCallees(body []ir.Statement, out map[ir.FunctionHandle]struct{}) {
	for _, st := range body {
		switch k := st.Kind.(type) {
		case ir.StmtBlock:
			collectCallees(k.Block, out)
		case ir.StmtIf:
			collectCallees(k.Accept, out)
			collectCallees(k.Reject, out)
		case ir.StmtSwitch:
			for _, c := range k.Cases {
				collectCallees(c.Body, out)
			}
		case ir.StmtLoop:
			collectCallees(k.Body, out)
			collectCallees(k.Continuing, out)
		case ir.StmtCall:
			out[k.Function] = struct{}{}
		}
	}
}
