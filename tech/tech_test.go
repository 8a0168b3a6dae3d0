package tech

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gogpu/naga/ir"
	"github.com/gogpu/tshader"
)

func mapFS(files map[string]string) fstest.MapFS {
	fsys := make(fstest.MapFS, len(files))
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

const spriteToml = `
[tech]
name = "sprite"
author = "gogpu"

[[pass]]
index = 0
source = "sprite.wgsl"
shaders = ["vs", "fs"]

[pass.variants]
unit = ["TEXTURE", "VERTEX_COLOR", "DEBUG_GRID"]
excludes = ["DEBUG_GRID"]
exclusives = [["TEXTURE", "VERTEX_COLOR"]]

[[pass]]
index = 1
source = "blur.wgsl"
shaders = ["cs"]

[pass.variants]
unit = ["HORIZONTAL"]
excludes = []
exclusives = []
`

const spriteWgsl = `///#decl LOC = _atomic_counter(0, 1)
///#decl OUT = _atomic_counter(0, 1)
///#decl RES = _atomic_counter(0, 1)

struct VertexInput {
    @loc_struct(LOC) pos: vec2<f32>,
///#if TEXTURE
    @loc_struct(LOC) uv: vec2<f32>,
///#endif
///#if VERTEX_COLOR
    @loc_struct(LOC) color: vec4<f32>,
///#endif
}

struct VertexOutput {
    @loc_struct(OUT) @builtin(position) clip: vec4<f32>,
///#if TEXTURE
    @loc_struct(OUT) uv: vec2<f32>,
///#endif
///#if VERTEX_COLOR
    @loc_struct(OUT) color: vec4<f32>,
///#endif
}

struct Sprite {
    offset: vec2<f32>,
    tint: vec4<f32>,
}

@loc_global(RES) var<uniform> sprite: Sprite;
///#if TEXTURE
@loc_global(RES) var spriteTex: texture_2d<f32>;
@loc_global(RES) var spriteSampler: sampler;
///#endif

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    let p = in.pos + sprite.offset;
    out.clip = vec4<f32>(p.x, p.y, 0.0, 1.0);
///#if TEXTURE
    out.uv = in.uv;
///#endif
///#if VERTEX_COLOR
    out.color = in.color;
///#endif
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
///#if TEXTURE
    return textureSample(spriteTex, spriteSampler, in.uv) * sprite.tint;
///#elseif VERTEX_COLOR
    return in.color * sprite.tint;
///#elseif DEBUG_GRID
    return vec4<f32>(1.0, 0.0, 1.0, 1.0);
///#else
    return sprite.tint;
///#endif
}
`

const blurWgsl = `///#decl RES = _atomic_counter(0, 1)

@loc_global(RES) var<storage, read_write> pixels: array<u32>;

@compute @workgroup_size(8, 8, 1)
fn cs_main(@builtin(global_invocation_id) gid: vec3<u32>) {
///#if HORIZONTAL
    pixels[gid.x] = gid.x;
///#else
    pixels[gid.y] = gid.y;
///#endif
}
`

func spriteLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(mapFS(map[string]string{
		"desc.toml":          "[map]\nsprite = \"sprite/tech.toml\"\n",
		"sprite/tech.toml":   spriteToml,
		"sprite/sprite.wgsl": spriteWgsl,
		"sprite/blur.wgsl":   blurWgsl,
	}))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return lib
}

func TestOpenMissingDesc(t *testing.T) {
	_, err := Open(mapFS(map[string]string{}))
	if err == nil {
		t.Fatal("expected error for missing desc.toml")
	}
}

func TestTechniques(t *testing.T) {
	lib, err := Open(mapFS(map[string]string{
		"desc.toml": "[map]\nzebra = \"z.toml\"\nalpha = \"a.toml\"\n",
	}))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	got := lib.Techniques()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zebra" {
		t.Errorf("expected [alpha zebra], got %v", got)
	}
}

func TestLoadTechUnknown(t *testing.T) {
	lib := spriteLibrary(t)
	_, err := lib.LoadTech("water")
	if !errors.Is(err, ErrUnknownTech) {
		t.Errorf("expected ErrUnknownTech, got %v", err)
	}
}

func TestLoadTech(t *testing.T) {
	lib := spriteLibrary(t)
	tech, err := lib.LoadTech("sprite")
	if err != nil {
		t.Fatalf("LoadTech failed: %v", err)
	}

	if tech.Name() != "sprite" {
		t.Errorf("expected name sprite, got %q", tech.Name())
	}
	if tech.Author() != "gogpu" {
		t.Errorf("expected author gogpu, got %q", tech.Author())
	}
	if n := len(tech.Passes()); n != 2 {
		t.Fatalf("expected 2 passes, got %d", n)
	}

	p := tech.Pass(0)
	if p == nil {
		t.Fatal("expected pass 0")
	}
	if p.Index() != 0 {
		t.Errorf("expected index 0, got %d", p.Index())
	}
	if p.Source() != "sprite/sprite.wgsl" {
		t.Errorf("expected source sprite/sprite.wgsl, got %q", p.Source())
	}
	if p.Stages() != StageVertex|StageFragment {
		t.Errorf("expected vs+fs stages, got %v", p.Stages())
	}
	unit := p.Unit()
	want := []string{"DEBUG_GRID", "TEXTURE", "VERTEX_COLOR"}
	if len(unit) != len(want) {
		t.Fatalf("expected unit %v, got %v", want, unit)
	}
	for i := range want {
		if unit[i] != want[i] {
			t.Fatalf("expected unit %v, got %v", want, unit)
		}
	}

	if blur := tech.Pass(1); blur == nil || blur.Stages() != StageCompute {
		t.Errorf("expected compute pass at index 1, got %+v", blur)
	}
	if tech.Pass(2) != nil || tech.Pass(-1) != nil {
		t.Error("out-of-range pass lookup should return nil")
	}

	// Loaded techniques are cached.
	again, err := lib.LoadTech("sprite")
	if err != nil {
		t.Fatalf("second LoadTech failed: %v", err)
	}
	if again != tech {
		t.Error("expected cached *Tech on second load")
	}
}

func TestLoadTechBadConfig(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{
			name: "no passes",
			toml: "[tech]\nauthor = \"x\"\n",
		},
		{
			name: "sparse pass indices",
			toml: `
[[pass]]
index = 0
source = "a.wgsl"
shaders = ["vs"]

[[pass]]
index = 2
source = "b.wgsl"
shaders = ["fs"]
`,
		},
		{
			name: "duplicate pass indices",
			toml: `
[[pass]]
index = 0
source = "a.wgsl"
shaders = ["vs"]

[[pass]]
index = 0
source = "b.wgsl"
shaders = ["fs"]
`,
		},
		{
			name: "missing source",
			toml: "[[pass]]\nindex = 0\nshaders = [\"vs\"]\n",
		},
		{
			name: "unknown shader kind",
			toml: "[[pass]]\nindex = 0\nsource = \"a.wgsl\"\nshaders = [\"gs\"]\n",
		},
		{
			name: "exclude outside unit",
			toml: `
[[pass]]
index = 0
source = "a.wgsl"
shaders = ["vs"]

[pass.variants]
unit = ["A"]
excludes = ["B"]
`,
		},
		{
			name: "exclusive outside unit",
			toml: `
[[pass]]
index = 0
source = "a.wgsl"
shaders = ["vs"]

[pass.variants]
unit = ["A"]
exclusives = [["A", "B"]]
`,
		},
		{
			name: "name mismatch",
			toml: "[tech]\nname = \"other\"\n\n[[pass]]\nindex = 0\nsource = \"a.wgsl\"\nshaders = [\"vs\"]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := Open(mapFS(map[string]string{
				"desc.toml":   "[map]\nbroken = \"broken.toml\"\n",
				"broken.toml": tt.toml,
			}))
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			_, err = lib.LoadTech("broken")
			if !errors.Is(err, ErrBadConfig) {
				t.Errorf("expected ErrBadConfig, got %v", err)
			}
		})
	}
}

func TestLoadTechUnknownConfigKey(t *testing.T) {
	lib, err := Open(mapFS(map[string]string{
		"desc.toml":   "[map]\nbroken = \"broken.toml\"\n",
		"broken.toml": "[[pass]]\nindex = 0\nsource = \"a.wgsl\"\nshaders = [\"vs\"]\ncamera = \"D3\"\n",
	}))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := lib.LoadTech("broken"); err == nil {
		t.Error("expected error for unknown config key")
	}
}

func TestPassCompile(t *testing.T) {
	lib := spriteLibrary(t)
	tech, err := lib.LoadTech("sprite")
	if err != nil {
		t.Fatalf("LoadTech failed: %v", err)
	}

	cp, err := tech.Pass(0).Compile(nil)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if cp.Name != "sprite-0" {
		t.Errorf("expected pass name sprite-0, got %q", cp.Name)
	}
	if cp.Stages != StageVertex|StageFragment {
		t.Errorf("expected vs+fs stages, got %v", cp.Stages)
	}
	if cp.Variant == nil || cp.Layout == nil {
		t.Fatal("expected variant and layout")
	}
	src := cp.Variant.Source
	if !strings.Contains(src, "@location(0) pos: vec2<f32>,") {
		t.Errorf("expected resolved pos attribute, got:\n%s", src)
	}
	if !strings.Contains(src, "@group(0) @binding(0) var<uniform> sprite: Sprite;") {
		t.Errorf("expected resolved sprite uniform, got:\n%s", src)
	}
	if strings.Contains(src, "textureSample") {
		t.Errorf("texture path must be pruned without TEXTURE flag, got:\n%s", src)
	}

	if _, ok := cp.Layout.EntryPoint(ir.StageVertex); !ok {
		t.Error("expected vertex entry point in layout")
	}
	groups := cp.Layout.Groups()
	if len(groups) != 1 || len(groups[0]) != 1 {
		t.Fatalf("expected single uniform entry, got %v", groups)
	}
	if groups[0][0].Buffer == nil || groups[0][0].Buffer.MinBindingSize != 32 {
		t.Errorf("expected sprite uniform of size 32, got %+v", groups[0][0].Buffer)
	}
	if n := len(cp.Layout.Vertex()); n != 1 {
		t.Errorf("expected 1 vertex input, got %d", n)
	}
}

func TestPassCompileTextured(t *testing.T) {
	lib := spriteLibrary(t)
	tech, err := lib.LoadTech("sprite")
	if err != nil {
		t.Fatalf("LoadTech failed: %v", err)
	}

	cp, err := tech.Pass(0).Compile(tshader.NewFlagSet("TEXTURE"))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	src := cp.Variant.Source
	if !strings.Contains(src, "@location(1) uv: vec2<f32>,") {
		t.Errorf("expected uv at location 1, got:\n%s", src)
	}
	if !strings.Contains(src, "@group(0) @binding(1) var spriteTex: texture_2d<f32>;") {
		t.Errorf("expected texture at binding 1, got:\n%s", src)
	}
	if !strings.Contains(src, "@group(0) @binding(2) var spriteSampler: sampler;") {
		t.Errorf("expected sampler at binding 2, got:\n%s", src)
	}
	if cp.Variant.Key != "sprite/sprite.wgsl|TEXTURE" {
		t.Errorf("unexpected variant key %q", cp.Variant.Key)
	}

	groups := cp.Layout.Groups()
	if len(groups) != 1 || len(groups[0]) != 3 {
		t.Fatalf("expected 3 entries in group 0, got %v", groups)
	}
	if n := len(cp.Layout.Vertex()); n != 2 {
		t.Errorf("expected 2 vertex inputs, got %d", n)
	}
}

func TestPassCompileUnknownFlag(t *testing.T) {
	lib := spriteLibrary(t)
	tech, err := lib.LoadTech("sprite")
	if err != nil {
		t.Fatalf("LoadTech failed: %v", err)
	}
	_, err = tech.Pass(0).Compile(tshader.NewFlagSet("FOG"))
	if !errors.Is(err, ErrUnknownFlag) {
		t.Errorf("expected ErrUnknownFlag, got %v", err)
	}
}

func TestPassCompileExcludedFlagStripped(t *testing.T) {
	lib := spriteLibrary(t)
	tech, err := lib.LoadTech("sprite")
	if err != nil {
		t.Fatalf("LoadTech failed: %v", err)
	}

	plain, err := tech.Pass(0).Compile(nil)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	stripped, err := tech.Pass(0).Compile(tshader.NewFlagSet("DEBUG_GRID"))
	if err != nil {
		t.Fatalf("Compile with excluded flag failed: %v", err)
	}

	// The excluded flag drops out of the effective set, so both calls
	// resolve to the same cached variant.
	if stripped.Variant != plain.Variant {
		t.Error("expected excluded flag to reuse the unflagged variant")
	}
	if strings.Contains(stripped.Variant.Source, "vec4<f32>(1.0, 0.0, 1.0, 1.0)") {
		t.Error("excluded flag must not select its branch")
	}
}

func TestPassCompileExclusiveFlags(t *testing.T) {
	lib := spriteLibrary(t)
	tech, err := lib.LoadTech("sprite")
	if err != nil {
		t.Fatalf("LoadTech failed: %v", err)
	}
	_, err = tech.Pass(0).Compile(tshader.NewFlagSet("TEXTURE", "VERTEX_COLOR"))
	if !errors.Is(err, ErrExclusiveFlags) {
		t.Errorf("expected ErrExclusiveFlags, got %v", err)
	}
}

func TestPassCompileCompute(t *testing.T) {
	lib := spriteLibrary(t)
	tech, err := lib.LoadTech("sprite")
	if err != nil {
		t.Fatalf("LoadTech failed: %v", err)
	}

	cp, err := tech.Pass(1).Compile(tshader.NewFlagSet("HORIZONTAL"))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if cp.Name != "sprite-1" {
		t.Errorf("expected pass name sprite-1, got %q", cp.Name)
	}
	if cp.Stages != StageCompute {
		t.Errorf("expected compute stage, got %v", cp.Stages)
	}
	ep, ok := cp.Layout.EntryPoint(ir.StageCompute)
	if !ok {
		t.Fatal("expected compute entry point")
	}
	if ep.Workgroup != [3]uint32{8, 8, 1} {
		t.Errorf("expected workgroup [8 8 1], got %v", ep.Workgroup)
	}
	if !strings.Contains(cp.Variant.Source, "pixels[gid.x]") {
		t.Errorf("expected horizontal branch, got:\n%s", cp.Variant.Source)
	}
}

func TestStageString(t *testing.T) {
	tests := []struct {
		s    Stage
		want string
	}{
		{0, "none"},
		{StageVertex, "vs"},
		{StageVertex | StageFragment, "vs+fs"},
		{StageVertex | StageFragment | StageCompute, "vs+fs+cs"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
