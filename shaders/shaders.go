// Package shaders embeds a ready-made technique library: annotated
// WGSL templates plus the TOML registry describing their passes and
// variant flags.
//
// Open it through the tech package:
//
//	lib, err := tech.Open(shaders.FS())
//
// # Techniques
//
// phong renders with a forward lighting pass and a depth-only shadow
// pass. Its variant flags select the diffuse source (DIFFUSE_CONSTANT,
// DIFFUSE_VERTEX or DIFFUSE_TEXTURE, mutually exclusive) and an
// optional specular term (SPECULAR_CONSTANT).
package shaders

import (
	"embed"
	"io/fs"
)

//go:embed desc.toml phong common
var files embed.FS

// FS returns the embedded library root, laid out as the tech package
// expects: desc.toml at the top, templates below it.
func FS() fs.FS { return files }
