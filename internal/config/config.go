// Package config loads cqrsgen project configuration from CUE or YAML.
//
// A configuration names the lifecycle file, the model files (glob patterns
// allowed) and the generation options. Command-line arguments override
// file values; see cli.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Error codes shared with the CLI.
const (
	ErrCodeLoadFailed = "E004" // config file cannot be parsed
	ErrCodeNotFound   = "E005" // config file or model pattern matches nothing
	ErrCodeInvalid    = "E006" // config file violates the schema
)

// DefaultFiles are tried, in order, when no config file is given.
var DefaultFiles = []string{"cqrsgen.cue", "cqrsgen.yaml", "cqrsgen.yml"}

// DefaultOutputName is the generated file name next to the lifecycle file.
const DefaultOutputName = "cqrs_gen.go"

//go:embed schema.cue
var schemaSource string

// Config is a cqrsgen project configuration.
type Config struct {
	Root        string   `json:"root,omitempty" yaml:"root"`
	Module      string   `json:"module,omitempty" yaml:"module"`
	Lifecycle   string   `json:"lifecycle" yaml:"lifecycle"`
	Models      []string `json:"models" yaml:"models"`
	Output      string   `json:"output,omitempty" yaml:"output"`
	Strict      bool     `json:"strict,omitempty" yaml:"strict"`
	Discovery   string   `json:"discovery,omitempty" yaml:"discovery"`
	SourceRoots []string `json:"source_roots,omitempty" yaml:"source_roots"`
}

// Error is a configuration error. Line is set when the problem can be
// located in the file.
type Error struct {
	Code    string
	Path    string
	Line    int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", e.Path, e.Line, e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{Root: ".", Discovery: "name"}
}

// Find returns the first of DefaultFiles present in dir, or "".
func Find(dir string) string {
	for _, name := range DefaultFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads the configuration at path. The format is chosen by extension.
// Relative Root values are resolved against the file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeNotFound, Path: path, Message: err.Error()}
	}

	var cfg Config
	switch ext := filepath.Ext(path); ext {
	case ".cue":
		cfg, err = parseCUE(path, data)
	case ".yaml", ".yml":
		cfg, err = parseYAML(path, data)
	default:
		return Config{}, &Error{Code: ErrCodeLoadFailed, Path: path, Message: fmt.Sprintf("unsupported config format %q", ext)}
	}
	if err != nil {
		return Config{}, err
	}

	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(path), cfg.Root)
	}
	if err := cfg.Validate(); err != nil {
		var ce *Error
		if errors.As(err, &ce) && ce.Path == "" {
			ce.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

func parseCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Config{}, cueError(ErrCodeLoadFailed, path, err)
	}
	v = schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, cueError(ErrCodeInvalid, path, err)
	}

	cfg := Default()
	if err := v.Decode(&cfg); err != nil {
		return Config{}, cueError(ErrCodeInvalid, path, err)
	}
	return cfg, nil
}

// cueError converts the first CUE error to an Error with its line.
func cueError(code, path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: code, Path: path, Message: err.Error()}
	}
	first := errs[0]
	out := &Error{Code: code, Path: path, Message: first.Error()}
	for _, pos := range cueerrors.Positions(first) {
		if pos.Filename() == path {
			out.Line = pos.Line()
			break
		}
	}
	return out
}

func parseYAML(path string, data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, &Error{Code: ErrCodeLoadFailed, Path: path, Message: err.Error()}
	}
	return cfg, nil
}

// Validate checks required fields and enumerations.
func (c Config) Validate() error {
	if c.Lifecycle == "" {
		return &Error{Code: ErrCodeInvalid, Message: "lifecycle is required"}
	}
	if len(c.Models) == 0 {
		return &Error{Code: ErrCodeInvalid, Message: "at least one model is required"}
	}
	switch c.Discovery {
	case "", "name", "directive":
	default:
		return &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf("discovery must be \"name\" or \"directive\", got %q", c.Discovery)}
	}
	return nil
}

// OutputPath returns the file the generated code is written to, relative
// to Root unless absolute.
func (c Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return filepath.Join(filepath.Dir(c.Lifecycle), DefaultOutputName)
}

// ExpandModels resolves the model list against Root. Entries containing
// glob metacharacters are expanded with doublestar (** matches any number
// of directories); each pattern's matches are sorted, and the first
// occurrence of a path wins. Plain paths are kept as given so that the
// resolver can report missing files.
func (c Config) ExpandModels() ([]string, error) {
	root := c.Root
	if root == "" {
		root = "."
	}
	fsys := os.DirFS(root)

	var models []string
	for _, entry := range c.Models {
		pattern := filepath.ToSlash(entry)
		if !strings.ContainsAny(pattern, "*?[{") {
			if !slices.Contains(models, entry) {
				models = append(models, entry)
			}
			continue
		}

		var matches []string
		err := doublestar.GlobWalk(fsys, pattern, func(p string, d fs.DirEntry) error {
			if !d.IsDir() && strings.HasSuffix(p, ".go") && !strings.HasSuffix(p, "_test.go") {
				matches = append(matches, p)
			}
			return nil
		})
		if err != nil {
			return nil, &Error{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("model pattern %q: %v", entry, err)}
		}
		if len(matches) == 0 {
			return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("model pattern %q matches no Go files under %s", entry, root)}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if m == filepath.ToSlash(c.OutputPath()) || slices.Contains(models, m) {
				continue
			}
			models = append(models, m)
		}
	}
	return models, nil
}
