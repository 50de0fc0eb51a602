package graph

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/reliclabs/relic/pkg/parser"
)

// resolver maps import specifiers to scanned files. Resolution is
// relative-path-first, then a module-stem lookup; anything else is
// external.
type resolver struct {
	files map[string]bool     // normalized path -> exists
	stems map[string][]string // basename without extension -> paths
}

func newResolver(files []*parser.File) *resolver {
	r := &resolver{
		files: make(map[string]bool),
		stems: make(map[string][]string),
	}
	for _, f := range files {
		p := normalizePath(f.Path)
		r.files[p] = true
		stem := stemOf(p)
		r.stems[stem] = append(r.stems[stem], p)
	}
	for _, paths := range r.stems {
		sort.Strings(paths)
	}
	return r
}

// resolve returns the target node ID for an import specifier and
// whether it resolved to a scanned file. Unresolved specifiers come
// back verbatim as external sentinel IDs.
func (r *resolver) resolve(from *parser.File, spec string) (string, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", false
	}

	fromDir := path.Dir(normalizePath(from.Path))

	if rel, ok := r.resolveRelative(fromDir, spec, from.Language()); ok {
		return rel, true
	}
	if p, ok := r.resolveStem(fromDir, spec); ok {
		return p, true
	}
	return spec, false
}

// resolveRelative handles explicit relative forms: "./x" and "../x"
// specifiers, Python's leading-dot modules, and bare relative paths
// (Ruby's require_relative passes those).
func (r *resolver) resolveRelative(fromDir, spec string, lang parser.Language) (string, bool) {
	var rel string
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		rel = spec
	case lang == parser.LangPython && strings.HasPrefix(spec, "."):
		dots := 0
		for dots < len(spec) && spec[dots] == '.' {
			dots++
		}
		rel = strings.Repeat("../", dots-1) + moduleToPath(spec[dots:])
	case lang == parser.LangPython:
		// Absolute module path, tried against the scan root below via the
		// candidate list rooted at ".".
		if p, ok := r.tryCandidates(".", moduleToPath(spec)); ok {
			return p, true
		}
		return "", false
	case lang == parser.LangRuby && !strings.Contains(spec, "/"):
		rel = spec
	case strings.Contains(spec, "/") && !strings.HasPrefix(spec, "/"):
		rel = spec
	default:
		return "", false
	}

	return r.tryCandidates(fromDir, rel)
}

// tryCandidates joins the specifier onto a base directory and probes
// it verbatim plus with every supported extension appended.
func (r *resolver) tryCandidates(base, rel string) (string, bool) {
	target := path.Clean(path.Join(base, rel))
	if r.files[target] {
		return target, true
	}
	for _, ext := range knownExtensions() {
		if candidate := target + ext; r.files[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// resolveStem matches the final path or module segment against file
// stems. Ambiguity prefers a file in the importing directory, then
// the lexicographically first match.
func (r *resolver) resolveStem(fromDir, spec string) (string, bool) {
	stem := spec
	if idx := strings.LastIndexAny(stem, "/."); idx >= 0 {
		stem = stem[idx+1:]
	}
	matches := r.stems[stem]
	if len(matches) == 0 {
		return "", false
	}
	for _, m := range matches {
		if path.Dir(m) == fromDir {
			return m, true
		}
	}
	return matches[0], true
}

func moduleToPath(module string) string {
	return strings.ReplaceAll(module, ".", "/")
}

func stemOf(p string) string {
	base := path.Base(p)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

var (
	extensionOnce sync.Once
	extensionList []string
)

func knownExtensions() []string {
	extensionOnce.Do(func() {
		for _, lang := range []parser.Language{
			parser.LangGo, parser.LangPython, parser.LangJavaScript,
			parser.LangTypeScript, parser.LangTSX, parser.LangJava, parser.LangRuby,
		} {
			if g := parser.ForLanguage(lang); g != nil {
				extensionList = append(extensionList, g.Extensions...)
			}
		}
	})
	return extensionList
}
