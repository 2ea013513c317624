package boundary

import (
	"github.com/rs/zerolog"

	"github.com/sarchlab/longstack/hop"
	"github.com/sarchlab/longstack/idgen"
)

// An Option customizes a single installation.
type Option func(o *installOptions)

type installOptions struct {
	positions []int
	label     string
}

// WithPositions overrides the callback positions declared by the class.
func WithPositions(positions ...int) Option {
	return func(o *installOptions) {
		o.positions = append([]int(nil), positions...)
	}
}

// WithLabel overrides the label that names the boundary in traces.
func WithLabel(label string) Option {
	return func(o *installOptions) {
		o.label = label
	}
}

// A RegistryOption customizes a Registry.
type RegistryOption func(r *Registry)

// WithStack makes the registry push contexts onto s.
func WithStack(s *hop.Stack) RegistryOption {
	return func(r *Registry) {
		r.stack = s
	}
}

// WithLogger sets the logger used to report installs and restores.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithIDGenerator sets the generator of context IDs.
func WithIDGenerator(g idgen.IDGenerator) RegistryOption {
	return func(r *Registry) {
		r.ids = g
	}
}
