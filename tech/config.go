package tech

import (
	"bytes"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// descFile is the registry file expected at the root of a library
// file system.
const descFile = "desc.toml"

// desc maps technique names to technique config paths, relative to
// the library root:
//
//	[map]
//	phong = "phong/tech.toml"
type desc struct {
	Map map[string]string `toml:"map"`
}

// techConfig is one technique description file.
//
//	[tech]
//	name = "phong"
//	author = "gogpu"
//
//	[[pass]]
//	index = 0
//	source = "forward.wgsl"
//	shaders = ["vs", "fs"]
//
//	[pass.variants]
//	unit = ["DIFFUSE_TEXTURE", "NORMAL_VERTEX"]
//	excludes = []
//	exclusives = [["DIFFUSE_TEXTURE", "DIFFUSE_VERTEX"]]
type techConfig struct {
	Tech techMeta     `toml:"tech"`
	Pass []passConfig `toml:"pass"`
}

type techMeta struct {
	Name   string `toml:"name"`
	Author string `toml:"author"`
}

type passConfig struct {
	Index    int            `toml:"index"`
	Source   string         `toml:"source"`
	Shaders  []string       `toml:"shaders"`
	Variants variantsConfig `toml:"variants"`
}

type variantsConfig struct {
	Unit       []string   `toml:"unit"`
	Excludes   []string   `toml:"excludes"`
	Exclusives [][]string `toml:"exclusives"`
}

func decodeTOML(fsys fs.FS, path string, v any) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("tech: read %s: %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("tech: parse %s: %w", path, err)
	}
	return nil
}

// validate checks a decoded technique config: at least one pass, pass
// indices dense from 0, a template source per pass, known shader
// kinds, and excludes/exclusives members drawn from the unit.
func (c *techConfig) validate(path string) error {
	if len(c.Pass) == 0 {
		return fmt.Errorf("%w: %s declares no passes", ErrBadConfig, path)
	}
	slices.SortStableFunc(c.Pass, func(a, b passConfig) int {
		return a.Index - b.Index
	})
	for i := range c.Pass {
		p := &c.Pass[i]
		if p.Index != i {
			return fmt.Errorf("%w: %s pass indices must be dense from 0, got %d at position %d",
				ErrBadConfig, path, p.Index, i)
		}
		if p.Source == "" {
			return fmt.Errorf("%w: %s pass %d has no source", ErrBadConfig, path, i)
		}
		if _, err := parseStages(p.Shaders); err != nil {
			return fmt.Errorf("%s pass %d: %w", path, i, err)
		}
		if err := p.Variants.validate(); err != nil {
			return fmt.Errorf("%s pass %d: %w", path, i, err)
		}
	}
	return nil
}

func (v *variantsConfig) validate() error {
	unit := make(map[string]struct{}, len(v.Unit))
	for _, f := range v.Unit {
		unit[f] = struct{}{}
	}
	for _, f := range v.Excludes {
		if _, ok := unit[f]; !ok {
			return fmt.Errorf("%w: excluded flag %q not in unit", ErrBadConfig, f)
		}
	}
	for _, group := range v.Exclusives {
		for _, f := range group {
			if _, ok := unit[f]; !ok {
				return fmt.Errorf("%w: exclusive flag %q not in unit", ErrBadConfig, f)
			}
		}
	}
	return nil
}

// Stage is a bit set of the pipeline stages a pass builds from its
// compiled source.
type Stage uint8

const (
	StageVertex Stage = 1 << iota
	StageFragment
	StageCompute
)

// Has reports whether all stages in mask are present.
func (s Stage) Has(mask Stage) bool { return s&mask == mask }

func (s Stage) String() string {
	var parts []string
	if s.Has(StageVertex) {
		parts = append(parts, "vs")
	}
	if s.Has(StageFragment) {
		parts = append(parts, "fs")
	}
	if s.Has(StageCompute) {
		parts = append(parts, "cs")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// parseStages maps the config shader kind names to a Stage set.
func parseStages(names []string) (Stage, error) {
	var s Stage
	for _, n := range names {
		switch n {
		case "vs":
			s |= StageVertex
		case "fs":
			s |= StageFragment
		case "cs":
			s |= StageCompute
		default:
			return 0, fmt.Errorf("%w: unknown shader kind %q", ErrBadConfig, n)
		}
	}
	return s, nil
}
