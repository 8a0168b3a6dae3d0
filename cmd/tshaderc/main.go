// Command tshaderc compiles one annotated WGSL template into a final
// shader variant.
//
// Usage:
//
//	tshaderc [options] <template.wgsl>
//
// Examples:
//
//	tshaderc shader.wgsl                   # compile the flagless variant to stdout
//	tshaderc -D TEXTURE -o out.wgsl shader.wgsl
//	tshaderc -reflect shader.wgsl          # print assigned locations and bindings
//	tshaderc -check -layout shader.wgsl    # lower with naga, print the pipeline layout
//
// Template and include paths are resolved relative to the working
// directory. With -reflect or -layout and no -o, the table replaces the
// source on stdout.
package main

import (
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"
	types "github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/tshader"
	"github.com/gogpu/tshader/layout"
)

// stringList collects the value of a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var (
	defines  stringList
	includes stringList

	output      = flag.String("o", "", "output file (default: stdout)")
	showReflect = flag.Bool("reflect", false, "print the reflection table")
	showLayout  = flag.Bool("layout", false, "print the pipeline layout derived from the output")
	runCheck    = flag.Bool("check", false, "reparse the final source with naga")
)

func main() {
	flag.Var(&defines, "D", "enable a variant flag (repeatable)")
	flag.Var(&includes, "I", "additional include directory (repeatable)")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one template file")
		usage()
		os.Exit(1)
	}
	input := path.Clean(filepath.ToSlash(args[0]))
	if path.IsAbs(input) || input == ".." || strings.HasPrefix(input, "../") {
		fmt.Fprintln(os.Stderr, "Error: template path must stay inside the working directory")
		os.Exit(1)
	}

	var opts []tshader.Option
	if len(includes) > 0 {
		opts = append(opts, tshader.WithIncludeDirs(includes...))
	}
	compiler := tshader.New(os.DirFS("."), opts...)
	variant, err := compiler.Compile(input, tshader.NewFlagSet(defines...))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation error: %v\n", err)
		os.Exit(1)
	}

	if *runCheck {
		if err := checkSource(variant.Source); err != nil {
			fmt.Fprintf(os.Stderr, "Check error: %v\n", err)
			os.Exit(1)
		}
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(variant.Source), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully compiled %s to %s (%d bytes)\n", input, *output, len(variant.Source))
	} else if !*showReflect && !*showLayout {
		fmt.Print(variant.Source)
	}

	if *showReflect {
		fmt.Print(variant.Reflection)
	}
	if *showLayout {
		lay, err := layout.Reflect(variant.Source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Layout error: %v\n", err)
			os.Exit(1)
		}
		printLayout(lay)
	}
}

// checkSource runs the naga frontend over the final source. Template
// compilation is purely textual, so this is where syntax mistakes in
// the template itself surface, with line:col positions.
func checkSource(source string) error {
	ast, err := naga.Parse(source)
	if err != nil {
		return err
	}
	_, err = naga.LowerWithSource(ast, source)
	return err
}

func printLayout(lay *layout.Layout) {
	fmt.Println("entry points:")
	for _, ep := range lay.EntryPoints() {
		if ep.Stage == ir.StageCompute {
			fmt.Printf("  %-16s %s @workgroup_size(%d, %d, %d)\n",
				ep.Name, stageName(ep.Stage), ep.Workgroup[0], ep.Workgroup[1], ep.Workgroup[2])
			continue
		}
		fmt.Printf("  %-16s %s\n", ep.Name, stageName(ep.Stage))
	}
	for i, group := range lay.Groups() {
		fmt.Printf("group %d:\n", i)
		for _, e := range group {
			fmt.Printf("  binding %d  %-28s %s\n", e.Binding, entryKind(e), visibility(e))
		}
	}
	if inputs := lay.Vertex(); len(inputs) > 0 {
		fmt.Println("vertex buffers:")
		for _, vb := range inputs {
			a := vb.Attributes[0]
			fmt.Printf("  location %d  %-10s stride %d\n", a.ShaderLocation, formatName(a.Format), vb.ArrayStride)
		}
	}
	if push := lay.PushConstants(); len(push) > 0 {
		fmt.Println("push constants:")
		for _, pc := range push {
			fmt.Printf("  %-16s %d bytes\n", pc.Name, pc.Size)
		}
	}
}

func stageName(s ir.ShaderStage) string {
	switch s {
	case ir.StageVertex:
		return "vertex"
	case ir.StageFragment:
		return "fragment"
	case ir.StageCompute:
		return "compute"
	}
	return "unknown"
}

func entryKind(e types.BindGroupLayoutEntry) string {
	switch {
	case e.Buffer != nil:
		kind := "uniform buffer"
		if e.Buffer.Type == types.BufferBindingTypeReadOnlyStorage {
			kind = "storage buffer"
		}
		return fmt.Sprintf("%s, min %d bytes", kind, e.Buffer.MinBindingSize)
	case e.Texture != nil:
		switch e.Texture.ViewDimension {
		case types.TextureViewDimension1D:
			return "texture 1d"
		case types.TextureViewDimension3D:
			return "texture 3d"
		}
		return "texture 2d"
	case e.Sampler != nil:
		return "sampler"
	}
	return "unknown"
}

func visibility(e types.BindGroupLayoutEntry) string {
	var parts []string
	if e.Visibility&types.ShaderStageVertex != 0 {
		parts = append(parts, "vs")
	}
	if e.Visibility&types.ShaderStageFragment != 0 {
		parts = append(parts, "fs")
	}
	if e.Visibility&types.ShaderStageCompute != 0 {
		parts = append(parts, "cs")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

func formatName(f gputypes.VertexFormat) string {
	switch f {
	case gputypes.VertexFormatFloat32:
		return "float32"
	case gputypes.VertexFormatFloat32x2:
		return "float32x2"
	case gputypes.VertexFormatFloat32x3:
		return "float32x3"
	case gputypes.VertexFormatFloat32x4:
		return "float32x4"
	}
	return fmt.Sprintf("format(%v)", f)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: tshaderc [options] <template.wgsl>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  tshaderc shader.wgsl                       Compile the flagless variant to stdout\n")
	fmt.Fprintf(os.Stderr, "  tshaderc -D TEXTURE -D SHADOW shader.wgsl  Enable variant flags\n")
	fmt.Fprintf(os.Stderr, "  tshaderc -I shaders shader.wgsl            Also search shaders/ for includes\n")
	fmt.Fprintf(os.Stderr, "  tshaderc -reflect shader.wgsl              Print assigned locations and bindings\n")
	fmt.Fprintf(os.Stderr, "  tshaderc -check -layout shader.wgsl        Lower with naga, print the pipeline layout\n")
}
