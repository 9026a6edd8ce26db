package gen

import (
	"go/token"
	"path/filepath"
)

// Config holds the configuration of a code generation run.
type Config struct {
	// Target is the output directory of the generated package.
	Target string
	// Package is the name of the generated package. Defaults to the base
	// name of Target.
	Package string
	// Header is the comment written at the top of every generated file.
	Header string
	// Workers is the number of files rendered in parallel.
	Workers int
}

// Option configures code generation.
type Option func(*Config) error

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithPackage sets the name of the generated package.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(pkg) {
			return NewConfigError("Package", pkg, "package name must be a valid Go identifier")
		}
		c.Package = pkg
		return nil
	}
}

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// NewConfig creates a Config from the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Header:  "Code generated by track. DO NOT EDIT.",
		Workers: 4,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.Target == "" {
		return nil, NewConfigError("Target", nil, "no target directory set: use WithTarget")
	}
	if c.Package == "" {
		c.Package = filepath.Base(c.Target)
		if !token.IsIdentifier(c.Package) {
			return nil, NewConfigError("Package", c.Package, "target base name is not a valid package name: use WithPackage")
		}
	}
	return c, nil
}
