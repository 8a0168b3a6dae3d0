package tshader

import (
	"io/fs"
	"time"

	"github.com/gogpu/tshader/template"
)

// Compiler compiles shader templates from a file system into cached
// variants. Compiled variants are memoized: repeated Compile calls for
// the same template and flag set return the same *Variant, and
// concurrent first requests collapse into a single compilation.
//
// A Compiler is safe for concurrent use.
type Compiler struct {
	fsys fs.FS
	opts compilerOptions
	vc   variantCache
}

// New creates a Compiler reading templates from fsys. Template and
// include paths are fs.FS paths: slash-separated, relative to the root
// of fsys.
func New(fsys fs.FS, opts ...Option) *Compiler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Compiler{
		fsys: fsys,
		opts: o,
	}
	c.vc.init(o.cacheSize)
	return c
}

// Compile returns the variant of the template at path under the given
// flags, compiling it on first use. The flag set may be nil for the
// unconditional variant. The returned Variant is shared and must not
// be modified.
//
// Errors carry the failing file and line; match the kind with
// errors.Is against the template package sentinels, for example
// [template.ErrUnknownScope].
func (c *Compiler) Compile(path string, flags FlagSet) (*Variant, error) {
	return c.vc.get(path, flags, c.compile)
}

// compile runs the full pipeline for one variant: load and splice
// includes, parse directives, prune dead branches, then allocate slots
// and substitute markers.
func (c *Compiler) compile(path string, flags FlagSet, key string) (*Variant, error) {
	start := time.Now()

	doc, err := template.Load(c.fsys, path, template.WithIncludeDirs(c.opts.includeDirs...))
	if err != nil {
		return nil, err
	}
	nodes, err := template.Parse(doc)
	if err != nil {
		return nil, err
	}
	elems, err := prune(nodes, flags)
	if err != nil {
		return nil, err
	}
	source, refl, err := resolve(elems)
	if err != nil {
		return nil, err
	}

	v := &Variant{
		Path:       path,
		Flags:      flags.Clone(),
		Key:        key,
		Source:     source,
		Reflection: refl,
	}
	Logger().Debug("compiled shader variant",
		"path", path,
		"key", key,
		"files", len(doc.Files),
		"lines", len(doc.Lines),
		"attributes", len(refl.Attributes),
		"resources", len(refl.Resources),
		"duration", time.Since(start),
	)
	return v, nil
}
