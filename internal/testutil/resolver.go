// Package testutil provides test helpers shared across cqrsgen packages.
package testutil

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/roach88/cqrsgen/internal/source"
)

// MapResolver is an in-memory source.Resolver. Files are keyed by slash
// separated paths relative to the project root.
type MapResolver struct {
	Module string
	Files  map[string]string
}

var _ source.Resolver = (*MapResolver)(nil)

// NewMapResolver creates a resolver for module with the given files.
func NewMapResolver(module string, files map[string]string) *MapResolver {
	if files == nil {
		files = make(map[string]string)
	}
	return &MapResolver{Module: module, Files: files}
}

// Read returns the text stored under p.
func (r *MapResolver) Read(p string) ([]byte, error) {
	text, ok := r.Files[path.Clean(filepath.ToSlash(p))]
	if !ok {
		return nil, &source.ModuleNotFoundError{Path: p, Dir: "memory", Err: fs.ErrNotExist}
	}
	return []byte(text), nil
}

// ImportPath derives the import path of p with the default source roots.
func (r *MapResolver) ImportPath(p string) (string, error) {
	if _, ok := r.Files[path.Clean(filepath.ToSlash(p))]; !ok {
		return "", fmt.Errorf("unknown module %s", p)
	}
	return source.ImportPathFor(r.Module, p, source.DefaultSourceRoots)
}
