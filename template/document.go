package template

import (
	"io/fs"
	"path"
	"strings"
)

// Line is one source line of a spliced document, carrying provenance so
// that later passes can report errors against the file the line actually
// came from.
type Line struct {
	Path string // file the line was read from
	Num  int    // 1-based line number within Path
	Text string // content without the trailing newline
}

// Document is a template spliced into one logical sequence of lines.
// Include directives are resolved and consumed during [Load]; every other
// line passes through untouched.
type Document struct {
	Root  string   // root template path as given to Load
	Lines []Line   // spliced lines in document order
	Files []string // every spliced file, in first-include order
}

// NewDocument builds a single-file document from source text without
// include resolution. Include directives remain in the line stream and
// parse into [Include] nodes.
func NewDocument(p, src string) *Document {
	return &Document{
		Root:  p,
		Lines: splitLines(p, src),
		Files: []string{p},
	}
}

// Source renders the document's lines back into one source string.
func (d *Document) Source() string {
	var sb strings.Builder
	for _, ln := range d.Lines {
		sb.WriteString(ln.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// LoadOption configures document loading.
type LoadOption func(*loadOptions)

type loadOptions struct {
	includeDirs []string
}

// WithIncludeDirs appends directories searched for include targets after
// the directory of the including file. Directories are tried in order;
// the first hit wins.
func WithIncludeDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		for _, d := range dirs {
			o.includeDirs = append(o.includeDirs, path.Clean(d))
		}
	}
}

// Load reads the template at p from fsys and splices every include into
// one logical document.
//
// Include targets are resolved against the directory of the including
// file first, then against the configured include directories in order.
// Each distinct file is spliced once, at its first include point; later
// includes of the same file splice nothing. A chain of includes that
// returns to a file still being spliced fails with [ErrCyclicInclude],
// naming the full chain.
func Load(fsys fs.FS, p string, opts ...LoadOption) (*Document, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	l := &loader{
		fsys:  fsys,
		dirs:  o.includeDirs,
		state: make(map[string]int),
	}
	root := path.Clean(p)
	if _, err := fs.Stat(fsys, root); err != nil {
		return nil, errorf(ErrUnresolvedInclude, root, 0, "cannot read template %q: %v", p, err)
	}
	if err := l.load(root); err != nil {
		return nil, err
	}
	return &Document{Root: root, Lines: l.lines, Files: l.files}, nil
}

// Loader DFS states. A file revisited while still loading closes an
// include cycle; a file already done is skipped (include-once).
const (
	stateLoading = 1
	stateDone    = 2
)

type loader struct {
	fsys  fs.FS
	dirs  []string
	state map[string]int
	stack []string // files currently being spliced, for cycle reporting
	lines []Line
	files []string
}

func (l *loader) load(p string) error {
	l.state[p] = stateLoading
	l.stack = append(l.stack, p)
	l.files = append(l.files, p)
	defer func() {
		l.stack = l.stack[:len(l.stack)-1]
		l.state[p] = stateDone
	}()

	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return errorf(ErrUnresolvedInclude, p, 0, "cannot read template %q: %v", p, err)
	}

	for _, ln := range splitLines(p, string(data)) {
		keyword, rest, ok := splitDirective(ln.Text)
		if !ok || keyword != "include" {
			l.lines = append(l.lines, ln)
			continue
		}
		target, err := parseIncludeTarget(rest)
		if err != nil {
			return errorf(ErrDirectiveSyntax, ln.Path, ln.Num, "malformed include: %v", err)
		}
		resolved, found := l.resolve(path.Dir(p), target)
		if !found {
			return errorf(ErrUnresolvedInclude, ln.Path, ln.Num, "cannot resolve include %q", target)
		}
		switch l.state[resolved] {
		case stateLoading:
			chain := strings.Join(append(append([]string{}, l.stack...), resolved), " -> ")
			return errorf(ErrCyclicInclude, ln.Path, ln.Num, "cyclic include: %s", chain)
		case stateDone:
			// Already spliced at its first include point.
			continue
		}
		if err := l.load(resolved); err != nil {
			return err
		}
	}
	return nil
}

// resolve searches for target relative to the including file's directory,
// then in each include directory.
func (l *loader) resolve(fromDir, target string) (string, bool) {
	candidates := make([]string, 0, len(l.dirs)+1)
	candidates = append(candidates, path.Join(fromDir, target))
	for _, d := range l.dirs {
		candidates = append(candidates, path.Join(d, target))
	}
	for _, c := range candidates {
		if !fs.ValidPath(c) {
			continue
		}
		if _, err := fs.Stat(l.fsys, c); err == nil {
			return c, true
		}
	}
	return "", false
}

// splitLines turns file content into provenance-tagged lines. A trailing
// newline does not produce a phantom empty line, and CRLF endings are
// normalized.
func splitLines(p, src string) []Line {
	raw := strings.Split(src, "\n")
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}
	lines := make([]Line, len(raw))
	for i, text := range raw {
		lines[i] = Line{Path: p, Num: i + 1, Text: strings.TrimSuffix(text, "\r")}
	}
	return lines
}
