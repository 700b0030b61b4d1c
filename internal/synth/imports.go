package synth

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/roach88/cqrsgen/internal/ir"
)

// ImportSet assigns collision-free aliases to the packages referenced by
// the generated file.
type ImportSet struct {
	byPath map[string]string
	taken  map[string]bool
}

// NewImportSet creates an empty set. Reserved names are never handed out
// as aliases.
func NewImportSet(reserved ...string) *ImportSet {
	s := &ImportSet{
		byPath: make(map[string]string),
		taken:  make(map[string]bool),
	}
	for _, name := range reserved {
		s.taken[name] = true
	}
	return s
}

// Add registers importPath and returns its alias. name is the preferred
// alias; numeric suffixes resolve clashes (todo, todo2, ...).
func (s *ImportSet) Add(importPath, name string) string {
	if alias, ok := s.byPath[importPath]; ok {
		return alias
	}
	alias := name
	for i := 2; s.taken[alias]; i++ {
		alias = fmt.Sprintf("%s%d", name, i)
	}
	s.byPath[importPath] = alias
	s.taken[alias] = true
	return alias
}

// Aliases returns every alias in use, sorted.
func (s *ImportSet) Aliases() []string {
	aliases := make([]string, 0, len(s.byPath))
	for _, alias := range s.byPath {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Imports returns the import specs sorted by path, standard library first.
func (s *ImportSet) Imports() []ir.Import {
	imports := make([]ir.Import, 0, len(s.byPath))
	for p, alias := range s.byPath {
		imp := ir.Import{Path: p, Std: isStd(p)}
		if alias != path.Base(p) {
			imp.Name = alias
		}
		imports = append(imports, imp)
	}
	sort.Slice(imports, func(i, j int) bool {
		if imports[i].Std != imports[j].Std {
			return imports[i].Std
		}
		return imports[i].Path < imports[j].Path
	})
	return imports
}

// isStd reports whether importPath belongs to the standard library, whose
// first path element never contains a dot.
func isStd(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
