package tshader

// Variant is one compiled shader variant: the final WGSL source of a
// template under a specific flag set, plus the reflection table built
// while assigning locations and bindings.
//
// Variants are immutable after compilation and shared: the cache hands
// the same *Variant to every caller asking for the same template and
// flag set.
type Variant struct {
	Path       string      // template path the variant was compiled from
	Flags      FlagSet     // flag set the variant was compiled with (private copy)
	Key        string      // canonical cache key, path + "|" + FlagSet.Key
	Source     string      // final WGSL source
	Reflection *Reflection // location/binding table
}
