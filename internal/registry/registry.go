// Package registry is the single source of truth mapping algorithm names to
// input queues, worker deployments and parameter bounds. Entries are loaded
// from configuration at startup and never mutated afterwards.
package registry

import (
	"fmt"
	"sort"

	"pixelgate/internal/model"
	"pixelgate/pkg/config"
)

// Service one registered processing algorithm
type Service struct {
	Name        string
	Queue       string
	Deployment  string
	Description string
	MaxThreads  int
	MaxPasses   int
}

// Registry immutable algorithm lookup table
type Registry struct {
	services map[string]*Service
	names    []string
}

// New builds a registry from configuration
func New(services []config.ServiceConfig) (*Registry, error) {
	if len(services) == 0 {
		return nil, fmt.Errorf("registry: no services configured")
	}

	m := make(map[string]*Service, len(services))
	names := make([]string, 0, len(services))
	for _, svc := range services {
		if _, ok := m[svc.Name]; ok {
			return nil, fmt.Errorf("registry: duplicate service %q", svc.Name)
		}
		m[svc.Name] = &Service{
			Name:        svc.Name,
			Queue:       svc.Queue,
			Deployment:  svc.Deployment,
			Description: svc.Description,
			MaxThreads:  svc.MaxThreads,
			MaxPasses:   svc.MaxPasses,
		}
		names = append(names, svc.Name)
	}
	sort.Strings(names)

	return &Registry{services: m, names: names}, nil
}

// Get looks up a service by algorithm name
func (r *Registry) Get(algorithm string) (*Service, bool) {
	svc, ok := r.services[algorithm]
	return svc, ok
}

// Names returns registered algorithm names in sorted order
func (r *Registry) Names() []string {
	return r.names
}

// List returns all registered services in name order
func (r *Registry) List() []*Service {
	out := make([]*Service, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.services[name])
	}
	return out
}

// ValidateParameters checks algorithm parameters against the service's
// declared bounds and normalizes zero values to defaults.
func (r *Registry) ValidateParameters(algorithm string, params *model.Parameters) error {
	svc, ok := r.services[algorithm]
	if !ok {
		return model.NewAdmissionError(model.ReasonUnknownAlgorithm,
			fmt.Sprintf("algorithm %q is not registered", algorithm), nil)
	}

	if params.Threads == 0 {
		params.Threads = 4
	}
	if params.Passes == 0 {
		params.Passes = 1
	}

	if params.Threads < 1 || params.Threads > svc.MaxThreads {
		return model.NewAdmissionError(model.ReasonInvalidParameter,
			fmt.Sprintf("threads must be in [1,%d], got %d", svc.MaxThreads, params.Threads), nil)
	}
	if params.Passes < 1 || params.Passes > svc.MaxPasses {
		return model.NewAdmissionError(model.ReasonInvalidParameter,
			fmt.Sprintf("passes must be in [1,%d], got %d", svc.MaxPasses, params.Passes), nil)
	}
	return nil
}
