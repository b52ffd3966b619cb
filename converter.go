package oaepub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/simp-lee/oaepub/config"
	"github.com/simp-lee/oaepub/epub"
	"github.com/simp-lee/oaepub/images"
	"github.com/simp-lee/oaepub/publisher"
	"github.com/simp-lee/oaepub/report"
)

// Generator is written as the generator of every package.
const Generator = "oaepub"

// ErrOutputExists is returned when the output file exists and the
// configuration does not allow overwriting it.
var ErrOutputExists = errors.New("oaepub: output file exists")

// Validator checks a written package. Its findings are advisory: they are
// attached to the result and never remove the output.
type Validator interface {
	Validate(ctx context.Context, name string) ([]epub.Issue, error)
}

// Converter runs the conversion pipeline. A Converter is safe for
// concurrent use; every conversion owns its own state.
type Converter struct {
	cfg       config.Config
	registry  *publisher.Registry
	resolver  images.Resolver
	validator Validator
	log       *zap.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithRegistry sets the publisher registry. Defaults to DefaultRegistry.
func WithRegistry(r *publisher.Registry) Option {
	return func(c *Converter) { c.registry = r }
}

// WithResolver sets the image resolver consulted before the directories
// named by the configuration.
func WithResolver(r images.Resolver) Option {
	return func(c *Converter) { c.resolver = r }
}

// WithValidator sets the package validator. Defaults to epub.Checker when
// the configuration enables validation. A nil validator disables it.
func WithValidator(v Validator) Option {
	return func(c *Converter) { c.validator = v }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.log = l }
}

// New creates a converter for cfg.
func New(cfg config.Config, opts ...Option) *Converter {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	c := &Converter{
		cfg:      cfg,
		registry: DefaultRegistry(),
		log:      zap.NewNop(),
	}
	if cfg.Validate {
		c.validator = epub.Checker{}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = DefaultRegistry()
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Config returns the configuration of c.
func (c *Converter) Config() config.Config { return c.cfg }

// Registry returns the publisher registry of c.
func (c *Converter) Registry() *publisher.Registry { return c.registry }

// Result is the outcome of converting one input.
type Result struct {
	Input     string           `json:"input"`
	Output    string           `json:"output,omitempty"`
	DOI       string           `json:"doi,omitempty"`
	Publisher string           `json:"publisher,omitempty"`
	Warnings  []report.Warning `json:"warnings"`
	Issues    []epub.Issue     `json:"issues,omitempty"`
	Err       error            `json:"-"`
}

// OK reports whether the input was converted.
func (r *Result) OK() bool { return r.Err == nil }
