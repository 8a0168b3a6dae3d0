// Package layout reflects pipeline interface data out of WGSL shader
// source.
//
// [Reflect] parses and lowers a shader with the naga frontend, then
// walks the lowered module to produce a [Layout]:
//
//   - entry points with stage and workgroup size
//   - bind group layout entries per @group, ordered by @binding, with
//     visibility unioned over every stage that reaches the resource
//     (directly or through function calls)
//   - one vertex buffer layout per location-bound vertex input, struct
//     arguments flattened member by member
//   - push constant ranges with byte sizes
//
// A [Layout] carries everything pipeline and bind group creation need
// short of a device handle. Resource types a bind group layout cannot
// express (comparison samplers, storage or depth textures) fail with
// [ErrUnsupported] rather than reflecting incomplete entries.
package layout
