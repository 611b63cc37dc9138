// Package pipeline is the single entry point that turns a raw scan into an
// extraction result: detect the format, parse, freeze and validate.
package pipeline

import (
	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/processor"
	"github.com/medflow/medflow-idscan/internal/idscan/validation"
)

// Pipeline holds no per-call state and is safe for concurrent use
type Pipeline struct {
	registry *processor.Registry
	engine   *validation.Engine
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithRegistry replaces the default parser registry
func WithRegistry(r *processor.Registry) Option {
	return func(p *Pipeline) {
		p.registry = r
	}
}

// WithEngine replaces the default validation engine
func WithEngine(e *validation.Engine) Option {
	return func(p *Pipeline) {
		p.engine = e
	}
}

// New creates a pipeline with the default registry and engine
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: processor.DefaultRegistry(),
		engine:   validation.NewEngine(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract runs one scan through detection and validation.
// It returns a *domain.NoDataError, which wraps domain.ErrNoDataExtracted,
// when no field could be found.
func (p *Pipeline) Extract(input domain.RawScanInput) (*domain.ExtractionResult, error) {
	format, fields := p.registry.Detect(input)
	if fields.IsEmpty() {
		return nil, &domain.NoDataError{Format: format}
	}

	frozen := fields.Freeze()
	return &domain.ExtractionResult{
		Format: format,
		Fields: frozen,
		Report: p.engine.Validate(frozen),
	}, nil
}
