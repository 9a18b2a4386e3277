// Package load reads schema documents from files, directory trees and
// fs.FS values.
package load

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/syssam/schemaviz"
	"github.com/syssam/schemaviz/schema"
)

// Result holds what a load produced.
type Result struct {
	// Documents in load order: paths in the given order, directory
	// entries in lexical order.
	Documents []*schema.Document
	// Warnings are the files and paths that could not be loaded, as
	// *schemaviz.LoadError values.
	Warnings []error
	// Files is the number of schema files read successfully.
	Files int
}

// Err returns the warnings joined into one error, or nil.
func (r *Result) Err() error {
	return schemaviz.NewAggregateError(r.Warnings...)
}

// Config configures a load.
type Config struct {
	// YAML also loads .yaml and .yml files found in directories.
	YAML bool
	// Logger receives one warning per file or path that fails.
	Logger *zap.Logger
}

// Option configures a load.
type Option func(*Config)

// WithYAML enables YAML schema files in directory walks.
func WithYAML(enabled bool) Option {
	return func(c *Config) {
		c.YAML = enabled
	}
}

// WithLogger sets the logger for warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// Paths loads schema documents from files and directories on disk.
//
// A file named explicitly is decoded as YAML when its extension says so
// and as JSON otherwise. Directories are walked recursively and only
// files with a schema extension are read. Missing paths and files that
// cannot be read or decoded are skipped with a warning. When no document
// at all was loaded the error is schemaviz.ErrNoSchemas; the result is
// returned either way.
func Paths(paths []string, opts ...Option) (*Result, error) {
	return newConfig(opts).load(osSource{}, paths)
}

// FS is like Paths but reads from fsys. Paths use the fs.FS naming rules;
// "." loads the whole tree.
func FS(fsys fs.FS, paths []string, opts ...Option) (*Result, error) {
	return newConfig(opts).load(fsSource{fsys}, paths)
}

func newConfig(opts []Option) *Config {
	c := &Config{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// source abstracts the filesystem so that disk and fs.FS loads share the
// walk logic.
type source interface {
	Stat(name string) (fs.FileInfo, error)
	WalkDir(root string, fn fs.WalkDirFunc) error
	ReadFile(name string) ([]byte, error)
}

type osSource struct{}

func (osSource) Stat(name string) (fs.FileInfo, error)        { return os.Stat(name) }
func (osSource) WalkDir(root string, fn fs.WalkDirFunc) error { return filepath.WalkDir(root, fn) }
func (osSource) ReadFile(name string) ([]byte, error)         { return os.ReadFile(name) }

type fsSource struct{ fsys fs.FS }

func (s fsSource) Stat(name string) (fs.FileInfo, error) { return fs.Stat(s.fsys, name) }
func (s fsSource) WalkDir(root string, fn fs.WalkDirFunc) error {
	return fs.WalkDir(s.fsys, root, fn)
}
func (s fsSource) ReadFile(name string) ([]byte, error) { return fs.ReadFile(s.fsys, name) }

func (c *Config) load(src source, paths []string) (*Result, error) {
	res := &Result{}
	for _, p := range paths {
		info, err := src.Stat(p)
		switch {
		case err != nil:
			if errors.Is(err, fs.ErrNotExist) {
				err = fmt.Errorf("path not found: %w", err)
			}
			c.warn(res, p, err)
		case info.IsDir():
			c.walk(src, res, p)
		default:
			format := FormatOf(p)
			if format == Unknown {
				format = JSON
			}
			c.file(src, res, p, format)
		}
	}
	c.Logger.Debug("loaded schemas",
		zap.Int("files", res.Files),
		zap.Int("documents", len(res.Documents)),
		zap.Int("warnings", len(res.Warnings)),
	)
	if len(res.Documents) == 0 {
		return res, schemaviz.ErrNoSchemas
	}
	return res, nil
}

func (c *Config) walk(src source, res *Result, root string) {
	// WalkDir visits entries in lexical order.
	_ = src.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.warn(res, path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch format := FormatOf(path); {
		case format == JSON, format == YAML && c.YAML:
			c.file(src, res, path, format)
		}
		return nil
	})
}

func (c *Config) file(src source, res *Result, path string, format Format) {
	buf, err := src.ReadFile(path)
	if err != nil {
		c.warn(res, path, err)
		return
	}
	docs, err := UnmarshalSchema(path, format, buf)
	if err != nil {
		c.warn(res, path, err)
		return
	}
	res.Files++
	res.Documents = append(res.Documents, docs...)
}

func (c *Config) warn(res *Result, path string, err error) {
	c.Logger.Warn("failed to load schema", zap.String("path", path), zap.Error(err))
	res.Warnings = append(res.Warnings, schemaviz.NewLoadError(path, err))
}
