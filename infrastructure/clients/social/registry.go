package social

import (
	"fmt"

	"blog-social/domain/model"
	"blog-social/domain/repository"
)

// Registry maps a platform to its adapter. It is built once and never mutated.
type Registry struct {
	adapters map[model.Platform]repository.IPlatformAdapter
	order    []model.Platform
}

func NewRegistry(adapters ...repository.IPlatformAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[model.Platform]repository.IPlatformAdapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			return nil, fmt.Errorf("registry: nil adapter")
		}
		p := a.Platform()
		if _, dup := r.adapters[p]; dup {
			return nil, fmt.Errorf("registry: duplicate adapter for platform %q", p)
		}
		r.adapters[p] = a
		r.order = append(r.order, p)
	}
	return r, nil
}

func (r *Registry) Get(platform model.Platform) (repository.IPlatformAdapter, error) {
	a, ok := r.adapters[platform]
	if !ok {
		return nil, &model.ConfigurationError{Platform: platform, Reason: "no adapter registered"}
	}
	return a, nil
}

// Platforms returns registered platforms in registration order.
func (r *Registry) Platforms() []model.Platform {
	out := make([]model.Platform, len(r.order))
	copy(out, r.order)
	return out
}
