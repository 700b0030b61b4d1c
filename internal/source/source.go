// Package source turns model paths into module text and Go import paths.
package source

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/modfile"
)

// ErrCodeNotFound is reported when a module file cannot be read.
const ErrCodeNotFound = "E005"

// DefaultSourceRoots are directory names skipped, together with everything
// before them, when deriving import paths.
var DefaultSourceRoots = []string{"src", "tests"}

// Resolver reads modules and derives their Go import paths.
type Resolver interface {
	Read(path string) ([]byte, error)
	ImportPath(path string) (string, error)
}

// ModuleNotFoundError reports a module that could not be read. Dir is the
// directory the path was resolved against.
type ModuleNotFoundError struct {
	Path string
	Dir  string
	Err  error
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("%s: cannot read module %q (resolved against %s): %v; model paths are relative to the project root",
		ErrCodeNotFound, e.Path, e.Dir, e.Err)
}

func (e *ModuleNotFoundError) Unwrap() error { return e.Err }

// FSResolver resolves paths against a project root on disk.
type FSResolver struct {
	Root        string
	Module      string // Go module path; empty outside a module
	SourceRoots []string
}

// NewFSResolver creates a resolver rooted at root. When module is empty it
// is read from root/go.mod if that file exists.
func NewFSResolver(root, module string, sourceRoots []string) (*FSResolver, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root %s: %w", root, err)
	}
	if module == "" {
		module, err = ModulePath(abs)
		if err != nil {
			return nil, err
		}
	}
	if sourceRoots == nil {
		sourceRoots = DefaultSourceRoots
	}
	return &FSResolver{Root: abs, Module: module, SourceRoots: sourceRoots}, nil
}

// ModulePath returns the module path declared in dir/go.mod, or "" when dir
// has no go.mod.
func ModulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read go.mod: %w", err)
	}
	module := modfile.ModulePath(data)
	if module == "" {
		return "", fmt.Errorf("%s: no module directive", filepath.Join(dir, "go.mod"))
	}
	return module, nil
}

// Read returns the text of the module at p.
func (r *FSResolver) Read(p string) ([]byte, error) {
	data, err := os.ReadFile(r.abs(p))
	if err != nil {
		return nil, &ModuleNotFoundError{Path: p, Dir: r.Root, Err: err}
	}
	return data, nil
}

// ImportPath returns the import path of the package containing p.
func (r *FSResolver) ImportPath(p string) (string, error) {
	rel, err := filepath.Rel(r.Root, r.abs(p))
	if err != nil {
		return "", fmt.Errorf("module %s is outside %s: %w", p, r.Root, err)
	}
	return ImportPathFor(r.Module, rel, r.SourceRoots)
}

func (r *FSResolver) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.Root, p)
}

// ImportPathFor derives the import path of the package containing the file
// at rel, a slash or OS separated path relative to the module root. When a
// directory element of rel is one of roots, it and everything before it is
// skipped.
func ImportPathFor(module, rel string, roots []string) (string, error) {
	p := path.Clean(filepath.ToSlash(rel))
	if !strings.HasSuffix(p, ".go") {
		return "", fmt.Errorf("module path %s does not end in a .go file", rel)
	}

	dir := path.Dir(p)
	var elems []string
	if dir != "." {
		elems = strings.Split(dir, "/")
	}
	if i := slices.IndexFunc(elems, func(e string) bool { return slices.Contains(roots, e) }); i >= 0 {
		elems = elems[i+1:]
	}
	if len(elems) > 0 && elems[0] == ".." {
		return "", fmt.Errorf("module path %s is outside the project root", rel)
	}

	if module == "" {
		if len(elems) == 0 {
			return "", fmt.Errorf("cannot derive an import path for %s without a module path", rel)
		}
		return strings.Join(elems, "/"), nil
	}
	return path.Join(append([]string{module}, elems...)...), nil
}
