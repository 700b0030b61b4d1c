package harness

import (
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/ir"
	"github.com/roach88/cqrsgen/internal/source"
	"github.com/roach88/cqrsgen/internal/synth"
)

// capabilities are the interfaces model files assert their types against.
var capabilities = []string{compiler.CapModel, compiler.CapHandle}

// StubFile is the name of the file declaring missing capabilities.
const StubFile = "cqrs_capabilities.go"

// ProjectFiles returns the files of scenario plus the generated code at
// OutputPath. A model package that does not declare every capability gets
// a StubFile declaring the missing ones as empty interfaces.
func ProjectFiles(scenario *Scenario, code []byte) (map[string]string, error) {
	files := make(map[string]string, len(scenario.Files)+len(scenario.Models)+1)
	for p, text := range scenario.Files {
		files[p] = text
	}
	files[scenario.OutputPath()] = string(code)

	for _, dir := range modelDirs(scenario) {
		declared := make(map[string]bool)
		pkg := ""
		for p, text := range files {
			if path.Dir(p) != dir || !isSource(p) {
				continue
			}
			mod, err := compiler.ParseModule(ir.SourceModule{Path: p, Text: []byte(text)})
			if err != nil {
				return nil, err
			}
			pkg = mod.Package()
			for _, name := range synth.DeclaredNames(mod) {
				declared[name] = true
			}
		}

		var stub strings.Builder
		for _, name := range capabilities {
			if !declared[name] {
				fmt.Fprintf(&stub, "\ntype %s interface{}\n", name)
			}
		}
		if stub.Len() > 0 {
			files[path.Join(dir, StubFile)] = "package " + pkg + "\n" + stub.String()
		}
	}
	return files, nil
}

// TypeCheck type-checks every package of the scenario's project with the
// generated code added. Standard library packages are loaded from source.
func TypeCheck(scenario *Scenario, code []byte) error {
	files, err := ProjectFiles(scenario, code)
	if err != nil {
		return err
	}

	fset := token.NewFileSet()
	im := &projectImporter{
		fset:     fset,
		packages: make(map[string][]*ast.File),
		checked:  make(map[string]*types.Package),
		std:      importer.ForCompiler(fset, "source", nil),
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		if isSource(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	for _, p := range paths {
		importPath, err := source.ImportPathFor(scenario.ModulePath(), p, source.DefaultSourceRoots)
		if err != nil {
			return err
		}
		file, err := parser.ParseFile(fset, p, files[p], 0)
		if err != nil {
			return err
		}
		im.packages[importPath] = append(im.packages[importPath], file)
	}

	importPaths := make([]string, 0, len(im.packages))
	for importPath := range im.packages {
		importPaths = append(importPaths, importPath)
	}
	sort.Strings(importPaths)

	var errs []error
	for _, importPath := range importPaths {
		if _, err := im.Import(importPath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// projectImporter checks project packages from their parsed files and
// delegates everything else to std.
type projectImporter struct {
	fset     *token.FileSet
	packages map[string][]*ast.File
	checked  map[string]*types.Package
	std      types.Importer
}

func (im *projectImporter) Import(importPath string) (*types.Package, error) {
	if pkg, ok := im.checked[importPath]; ok {
		return pkg, nil
	}
	files, ok := im.packages[importPath]
	if !ok {
		return im.std.Import(importPath)
	}

	conf := types.Config{Importer: im}
	pkg, err := conf.Check(importPath, im.fset, files, nil)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", importPath, err)
	}
	im.checked[importPath] = pkg
	return pkg, nil
}

func modelDirs(scenario *Scenario) []string {
	var dirs []string
	for _, m := range scenario.Models {
		if dir := path.Dir(m); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func isSource(p string) bool {
	return strings.HasSuffix(p, ".go") && !strings.HasSuffix(p, "_test.go")
}
