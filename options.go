package tshader

// compilerOptions holds configuration for a Compiler.
type compilerOptions struct {
	includeDirs []string
	cacheSize   int
}

// defaultOptions returns the default compiler configuration.
func defaultOptions() compilerOptions {
	return compilerOptions{
		cacheSize: 256,
	}
}

// Option configures a Compiler.
type Option func(*compilerOptions)

// WithIncludeDirs sets additional directories searched when resolving
// include directives. Targets are first resolved relative to the
// including file; the given directories are consulted in order after
// that.
//
// Example:
//
//	c := tshader.New(fsys, tshader.WithIncludeDirs("shaders/common"))
func WithIncludeDirs(dirs ...string) Option {
	return func(o *compilerOptions) {
		o.includeDirs = append(o.includeDirs, dirs...)
	}
}

// WithCacheCapacity sets the maximum number of compiled variants kept
// in the cache. When the cache is full, the least recently used variant
// is evicted. The default capacity is 256. A non-positive value is
// ignored.
func WithCacheCapacity(n int) Option {
	return func(o *compilerOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}
