package tech

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sync"

	"github.com/gogpu/tshader"
	"github.com/gogpu/tshader/layout"
)

// Errors returned by the technique layer; match with errors.Is.
// Config and flag details are attached by wrapping.
var (
	ErrUnknownTech    = errors.New("tech: technique not found")
	ErrUnknownFlag    = errors.New("tech: flag not in pass unit")
	ErrExclusiveFlags = errors.New("tech: mutually exclusive flags requested")
	ErrBadConfig      = errors.New("tech: invalid technique config")
)

// Library resolves technique names to config files through a desc.toml
// registry and compiles their passes with a shared [tshader.Compiler],
// so all techniques draw from one variant cache.
//
// A Library is safe for concurrent use; loaded techniques are cached.
type Library struct {
	fsys     fs.FS
	compiler *tshader.Compiler
	mapping  map[string]string

	mu    sync.RWMutex
	techs map[string]*Tech
}

// Open reads the desc.toml registry at the root of fsys and returns a
// Library compiling templates from the same file system. Options pass
// through to the underlying Compiler; the library root is always
// searched when resolving includes.
func Open(fsys fs.FS, opts ...tshader.Option) (*Library, error) {
	var d desc
	if err := decodeTOML(fsys, descFile, &d); err != nil {
		return nil, err
	}
	opts = append([]tshader.Option{tshader.WithIncludeDirs(".")}, opts...)
	return &Library{
		fsys:     fsys,
		compiler: tshader.New(fsys, opts...),
		mapping:  d.Map,
		techs:    make(map[string]*Tech),
	}, nil
}

// Compiler returns the library's shared variant compiler, for cache
// invalidation or direct template compilation.
func (l *Library) Compiler() *tshader.Compiler { return l.compiler }

// Techniques returns the names registered in desc.toml, sorted.
func (l *Library) Techniques() []string {
	names := make([]string, 0, len(l.mapping))
	for name := range l.mapping {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LoadTech returns the technique registered under name, reading and
// validating its config file on first use.
func (l *Library) LoadTech(name string) (*Tech, error) {
	l.mu.RLock()
	t, ok := l.techs[name]
	l.mu.RUnlock()
	if ok {
		return t, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.techs[name]; ok {
		return t, nil
	}

	cfgPath, ok := l.mapping[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTech, name)
	}
	var cfg techConfig
	if err := decodeTOML(l.fsys, cfgPath, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(cfgPath); err != nil {
		return nil, err
	}
	if cfg.Tech.Name != "" && cfg.Tech.Name != name {
		return nil, fmt.Errorf("%w: %s names itself %q but is registered as %q",
			ErrBadConfig, cfgPath, cfg.Tech.Name, name)
	}

	t = l.newTech(name, cfgPath, &cfg)
	l.techs[name] = t
	tshader.Logger().Info("loaded shader technique",
		"tech", name,
		"config", cfgPath,
		"passes", len(t.passes),
	)
	return t, nil
}

func (l *Library) newTech(name, cfgPath string, cfg *techConfig) *Tech {
	t := &Tech{
		name:   name,
		author: cfg.Tech.Author,
	}
	dir := path.Dir(cfgPath)
	for i := range cfg.Pass {
		pc := &cfg.Pass[i]
		stages, _ := parseStages(pc.Shaders) // validated during config load
		p := &Pass{
			lib:        l,
			tech:       name,
			index:      pc.Index,
			source:     path.Join(dir, pc.Source),
			stages:     stages,
			unit:       make(map[string]struct{}, len(pc.Variants.Unit)),
			excludes:   make(map[string]struct{}, len(pc.Variants.Excludes)),
			exclusives: pc.Variants.Exclusives,
		}
		for _, f := range pc.Variants.Unit {
			p.unit[f] = struct{}{}
		}
		for _, f := range pc.Variants.Excludes {
			p.excludes[f] = struct{}{}
		}
		t.passes = append(t.passes, p)
	}
	return t
}

// Tech is one loaded technique: an ordered list of passes sharing a
// config file.
type Tech struct {
	name   string
	author string
	passes []*Pass
}

// Name returns the name the technique is registered under.
func (t *Tech) Name() string { return t.name }

// Author returns the config's author field.
func (t *Tech) Author() string { return t.author }

// Passes returns the technique's passes in index order.
func (t *Tech) Passes() []*Pass { return t.passes }

// Pass returns the pass at index i, or nil when out of range.
func (t *Tech) Pass(i int) *Pass {
	if i < 0 || i >= len(t.passes) {
		return nil
	}
	return t.passes[i]
}

// Pass is one technique pass: a shader template plus the flag universe
// its variants may draw from.
type Pass struct {
	lib    *Library
	tech   string
	index  int
	source string
	stages Stage

	unit       map[string]struct{}
	excludes   map[string]struct{}
	exclusives [][]string
}

// Index returns the pass position within its technique.
func (p *Pass) Index() int { return p.index }

// Source returns the template path the pass compiles, relative to the
// library root.
func (p *Pass) Source() string { return p.source }

// Stages returns the pipeline stages the pass attaches its module to.
func (p *Pass) Stages() Stage { return p.stages }

// Unit returns the pass's complete legal flag universe, sorted.
func (p *Pass) Unit() []string {
	unit := make([]string, 0, len(p.unit))
	for f := range p.unit {
		unit = append(unit, f)
	}
	slices.Sort(unit)
	return unit
}

// Compile builds the pass variant selected by flags. Every requested
// flag must come from the pass unit; flags listed in excludes are
// dropped from the effective set, and requesting two members of one
// exclusives group is an error. The effective set selects the cached
// variant, and the final source is reflected into a pipeline
// [layout.Layout].
func (p *Pass) Compile(flags tshader.FlagSet) (*CompiledPass, error) {
	effective := tshader.NewFlagSet()
	for _, f := range flags.Names() {
		if _, ok := p.unit[f]; !ok {
			return nil, fmt.Errorf("%w: %q in pass %d of %s", ErrUnknownFlag, f, p.index, p.tech)
		}
		if _, ok := p.excludes[f]; ok {
			continue
		}
		effective.Add(f)
	}
	for _, group := range p.exclusives {
		var present []string
		for _, f := range group {
			if effective.Has(f) {
				present = append(present, f)
			}
		}
		if len(present) > 1 {
			return nil, fmt.Errorf("%w: %q and %q in pass %d of %s",
				ErrExclusiveFlags, present[0], present[1], p.index, p.tech)
		}
	}

	name := fmt.Sprintf("%s-%d", p.tech, p.index)
	variant, err := p.lib.compiler.Compile(p.source, effective)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	lay, err := layout.Reflect(variant.Source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &CompiledPass{
		Name:    name,
		Stages:  p.stages,
		Variant: variant,
		Layout:  lay,
	}, nil
}

// CompiledPass is the compiled form of one pass under one flag set.
type CompiledPass struct {
	Name    string           // technique name and pass index
	Stages  Stage            // stages the module covers
	Variant *tshader.Variant // shared compile result
	Layout  *layout.Layout   // pipeline interface of the final source
}
