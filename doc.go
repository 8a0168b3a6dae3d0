// Package tshader compiles annotated WGSL shader templates into
// concrete shader variants.
//
// A template is ordinary WGSL extended with preprocessor directives on
// lines starting with "///#" and inline substitution forms. Directives
// splice include files, select code through boolean feature flags, and
// declare named counters; substitution forms draw sequential values
// from those counters so that @location and @binding indices stay dense
// and deterministic no matter which flag combination is active.
//
// # Quick Start
//
//	c := tshader.New(os.DirFS("shaders"))
//
//	v, err := c.Compile("phong/phong.wgsl", tshader.NewFlagSet("DIFFUSE_MAP"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(v.Source)          // final WGSL
//	fmt.Println(v.Reflection)      // attribute and resource table
//
// # Directives
//
//	///#include "file.wgsl"          splice another template
//	///#if EXPR / ///#elseif EXPR
//	///#else / ///#endif             conditional sections
//	///#decl NAME                    promote NAME to a true flag
//	///#decl NAME = _atomic_counter(base, step)
//	                                 declare a counter scope
//
// Flag expressions support !, &&, || and parentheses. Inline forms:
//
//	#{NAME}                          next value of counter NAME
//	@loc_struct(NAME) field: T,      struct member location
//	@loc_global(NAME) var<tag> g: T; resource group/binding
//
// # Variants and Caching
//
// A variant is identified by the template path plus the set of enabled
// flags; flag order does not matter. Compile memoizes variants in an
// LRU cache and collapses concurrent requests for the same variant into
// a single compilation, so it is safe and cheap to call from render
// loops. Invalidate and InvalidateAll drop cached variants when
// template sources change.
//
// # Logging
//
// By default tshader produces no log output. Call [SetLogger] to
// receive compilation diagnostics through [log/slog].
package tshader
