// Package template implements the front end of the shader variant
// compiler: spliced documents, directive parsing, and flag expressions.
//
// # Documents
//
// [Load] reads a template from an fs.FS and splices every include
// directive into one logical [Document] whose lines remember the file
// and line they came from. Each distinct file is spliced once, at its
// first include point; include cycles fail with the full chain in the
// error.
//
// # Directives
//
// Directive lines start with ///# after optional indentation, so they
// read as comments to ordinary shader tooling:
//
//	///#include "common/attributes.wgsl"
//	///#if DIFFUSE_TEXTURE && !DIFFUSE_VERTEX
//	///#elseif DIFFUSE_CONSTANT
//	///#else
//	///#endif
//	///#decl SKINNED
//	///#decl ATTR = _atomic_counter(0, 1)
//
// [Parse] turns a document into a tree of [Node] values: verbatim text
// runs, conditional chains, and declarations.
//
// # Inline forms
//
// Surviving text may carry #{NAME} placeholders and @loc_struct /
// @loc_global annotation markers. Their grammar lives here
// ([ExpandPlaceholders], [ParseMarker]); slot allocation and
// substitution happen in the root tshader package.
//
// # Errors
//
// Every failure wraps one of the sentinel kinds ([ErrCyclicInclude],
// [ErrDirectiveSyntax], ...) and renders as "path:line: detail".
package template
