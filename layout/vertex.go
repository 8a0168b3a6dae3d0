package layout

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
)

// collectVertexInputs flattens the vertex entry point's arguments into
// per-attribute vertex buffer layouts. Struct arguments recurse member
// by member; builtin inputs carry no vertex data and are skipped.
func (l *Layout) collectVertexInputs(mod *ir.Module) error {
	var vertex *ir.Function
	for i := range mod.EntryPoints {
		if mod.EntryPoints[i].Stage == ir.StageVertex {
			// Entry point functions are inline in EntryPoints, not in
			// Module.Functions.
			vertex = &mod.EntryPoints[i].Function
			break
		}
	}
	if vertex == nil {
		return nil
	}

	for i := range vertex.Arguments {
		arg := &vertex.Arguments[i]
		if err := l.vertexInput(mod, arg.Name, arg.Type, arg.Binding); err != nil {
			return err
		}
	}

	slices.SortFunc(l.vertex, func(a, b gputypes.VertexBufferLayout) int {
		return cmp.Compare(a.Attributes[0].ShaderLocation, b.Attributes[0].ShaderLocation)
	})
	return nil
}

func (l *Layout) vertexInput(mod *ir.Module, name string, ty ir.TypeHandle, binding *ir.Binding) error {
	if binding == nil {
		st, ok := mod.Types[ty].Inner.(ir.StructType)
		if !ok {
			return fmt.Errorf("%w: unbound vertex input %q", ErrUnsupported, name)
		}
		for i := range st.Members {
			m := &st.Members[i]
			if err := l.vertexInput(mod, m.Name, m.Type, m.Binding); err != nil {
				return err
			}
		}
		return nil
	}

	loc, ok := (*binding).(ir.LocationBinding)
	if !ok {
		return nil
	}

	format, size, err := vertexFormat(mod, ty)
	if err != nil {
		return fmt.Errorf("vertex input %q: %w", name, err)
	}
	l.vertex = append(l.vertex, gputypes.VertexBufferLayout{
		ArrayStride: uint64(size),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{{
			ShaderLocation: loc.Location,
			Format:         format,
			Offset:         0,
		}},
	})
	return nil
}

// vertexFormat maps a shader input type to its vertex format and byte
// size. Vertex pulling covers 32-bit float scalars and vectors; other
// element types fail with ErrUnsupported.
func vertexFormat(mod *ir.Module, h ir.TypeHandle) (gputypes.VertexFormat, uint32, error) {
	var none gputypes.VertexFormat
	switch t := mod.Types[h].Inner.(type) {
	case ir.ScalarType:
		if t.Kind != ir.ScalarFloat || t.Width != 4 {
			return none, 0, fmt.Errorf("%w: scalar kind %v width %d", ErrUnsupported, t.Kind, t.Width)
		}
		return gputypes.VertexFormatFloat32, 4, nil

	case ir.VectorType:
		if t.Scalar.Kind != ir.ScalarFloat || t.Scalar.Width != 4 {
			return none, 0, fmt.Errorf("%w: vector of scalar kind %v width %d", ErrUnsupported, t.Scalar.Kind, t.Scalar.Width)
		}
		switch t.Size {
		case ir.Vec2:
			return gputypes.VertexFormatFloat32x2, 8, nil
		case ir.Vec3:
			return gputypes.VertexFormatFloat32x3, 12, nil
		case ir.Vec4:
			return gputypes.VertexFormatFloat32x4, 16, nil
		}
		return none, 0, fmt.Errorf("%w: vector size %d", ErrUnsupported, t.Size)

	default:
		return none, 0, fmt.Errorf("%w: vertex input type %T", ErrUnsupported, t)
	}
}
