package layout

import (
	"cmp"
	"fmt"
	"slices"

	types "github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
)

// collectGlobals turns referenced resource globals into bind group
// layout entries, grouped by @group and ordered by binding, and
// records push-constant ranges. Visibility of each entry is the union
// of the stages that reach the global.
func (l *Layout) collectGlobals(mod *ir.Module, vis map[ir.GlobalVariableHandle]stageSet) error {
	byGroup := make(map[uint32][]types.BindGroupLayoutEntry)
	maxGroup := -1

	for i := range mod.GlobalVariables {
		g := &mod.GlobalVariables[i]
		stages, used := vis[ir.GlobalVariableHandle(i)]
		if !used {
			continue
		}

		switch g.Space {
		case ir.SpacePushConstant:
			l.push = append(l.push, PushConstant{
				Name: g.Name,
				Size: pad4(typeSize(mod, g.Type)),
			})
			continue
		case ir.SpaceUniform, ir.SpaceStorage, ir.SpaceHandle:
		default:
			// Private, workgroup, and function variables are not part
			// of the pipeline interface.
			continue
		}

		if g.Binding == nil {
			return fmt.Errorf("%w: %s", ErrMissingBinding, g.Name)
		}

		entry := types.BindGroupLayoutEntry{Binding: g.Binding.Binding}
		if stages.vertex {
			entry.Visibility |= types.ShaderStageVertex
		}
		if stages.fragment {
			entry.Visibility |= types.ShaderStageFragment
		}
		if stages.compute {
			entry.Visibility |= types.ShaderStageCompute
		}

		switch g.Space {
		case ir.SpaceUniform:
			entry.Buffer = &types.BufferBindingLayout{
				Type:           types.BufferBindingTypeUniform,
				MinBindingSize: uint64(typeSize(mod, g.Type)),
			}
		case ir.SpaceStorage:
			// The IR drops the declared access mode, so reflection
			// reports the weakest form; promote to read-write at
			// pipeline creation when the shader writes the buffer.
			entry.Buffer = &types.BufferBindingLayout{
				Type: types.BufferBindingTypeReadOnlyStorage,
			}
		case ir.SpaceHandle:
			if err := handleEntry(&entry, mod, g); err != nil {
				return err
			}
		}

		group := g.Binding.Group
		byGroup[group] = append(byGroup[group], entry)
		if int(group) > maxGroup {
			maxGroup = int(group)
		}
	}

	l.groups = make([][]types.BindGroupLayoutEntry, maxGroup+1)
	for group, entries := range byGroup {
		slices.SortFunc(entries, func(a, b types.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		l.groups[group] = entries
	}
	return nil
}

// handleEntry fills the texture or sampler side of an entry from a
// handle-space global.
func handleEntry(entry *types.BindGroupLayoutEntry, mod *ir.Module, g *ir.GlobalVariable) error {
	switch t := mod.Types[g.Type].Inner.(type) {
	case ir.SamplerType:
		if t.Comparison {
			return fmt.Errorf("%w: comparison sampler %q", ErrUnsupported, g.Name)
		}
		entry.Sampler = &types.SamplerBindingLayout{
			Type: types.SamplerBindingTypeFiltering,
		}
		return nil

	case ir.ImageType:
		if t.Class != ir.ImageClassSampled {
			return fmt.Errorf("%w: non-sampled texture %q", ErrUnsupported, g.Name)
		}
		if t.Multisampled {
			return fmt.Errorf("%w: multisampled texture %q", ErrUnsupported, g.Name)
		}
		if t.Arrayed {
			return fmt.Errorf("%w: arrayed texture %q", ErrUnsupported, g.Name)
		}
		var dim types.TextureViewDimension
		switch t.Dim {
		case ir.Dim1D:
			dim = types.TextureViewDimension1D
		case ir.Dim2D:
			dim = types.TextureViewDimension2D
		case ir.Dim3D:
			dim = types.TextureViewDimension3D
		default:
			return fmt.Errorf("%w: cube texture %q", ErrUnsupported, g.Name)
		}
		entry.Texture = &types.TextureBindingLayout{
			SampleType:    types.TextureSampleTypeFloat,
			ViewDimension: dim,
		}
		return nil

	default:
		return fmt.Errorf("%w: handle global %q", ErrUnsupported, g.Name)
	}
}

// typeSize computes the byte size of a type for minimum binding sizes
// and push-constant ranges. Struct sizes come from the lowerer's
// computed span; runtime-sized arrays report 0 (no static minimum).
func typeSize(mod *ir.Module, h ir.TypeHandle) uint32 {
	switch t := mod.Types[h].Inner.(type) {
	case ir.ScalarType:
		return uint32(t.Width)
	case ir.VectorType:
		return uint32(t.Size) * uint32(t.Scalar.Width)
	case ir.MatrixType:
		return uint32(t.Columns) * columnStride(t.Rows, t.Scalar.Width)
	case ir.AtomicType:
		return uint32(t.Scalar.Width)
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return 0
		}
		return t.Stride * *t.Size.Constant
	case ir.StructType:
		return t.Span
	default:
		return 0
	}
}

// columnStride is the aligned size of one matrix column: three-row
// columns pad to four-element alignment.
func columnStride(rows ir.VectorSize, width uint8) uint32 {
	size := uint32(rows) * uint32(width)
	align := uint32(width) * 2
	if rows > ir.Vec2 {
		align = uint32(width) * 4
	}
	return (size + align - 1) / align * align
}

func pad4(n uint32) uint32 { return (n + 3) &^ 3 }
