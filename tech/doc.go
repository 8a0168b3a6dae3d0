// Package tech loads technique descriptions and compiles their passes
// into ready-to-use shader modules.
//
// A technique groups one or more passes under a name. Each pass points
// at a shader template, names the pipeline stages it covers, and
// declares the flag universe its variants may draw from. Techniques
// are registered in a desc.toml file at the root of a library file
// system:
//
//	[map]
//	phong = "phong/tech.toml"
//
// [Library.LoadTech] resolves a name through the registry and
// validates the technique config; [Pass.Compile] checks the requested
// flags against the pass unit, strips excluded flags, rejects
// exclusive combinations, and compiles the template through the
// library's shared [tshader.Compiler]. The result pairs the cached
// [tshader.Variant] with a [layout.Layout] reflected from the final
// source, so callers can go straight to pipeline creation.
package tech
