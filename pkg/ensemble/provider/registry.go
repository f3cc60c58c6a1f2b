package provider

import (
	"fmt"
	"sync"

	"github.com/mmichie/ensemble/pkg/ensemble/config"
	aierrors "github.com/mmichie/ensemble/pkg/ensemble/errors"
)

// Factory creates Provider instances for one backend.
type Factory interface {
	// Name returns the provider tag this factory serves (e.g. "openai")
	Name() string

	// Create returns a new Provider instance
	Create(cfg config.Config) (Provider, error)
}

// Registry resolves (provider tag, model) pairs to configured Provider
// instances. It is populated once at startup and read-only afterwards;
// created instances are cached per tag+model.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	configs   map[string]config.Config
	instances map[string]Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		configs:   make(map[string]config.Config),
		instances: make(map[string]Provider),
	}
}

// RegisterFactory adds a provider factory with its base configuration
func (r *Registry) RegisterFactory(factory Factory, cfg config.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := factory.Name()
	if name == "" {
		return aierrors.New("registry", "register_factory",
			fmt.Errorf("provider factory name cannot be empty"))
	}

	if _, exists := r.factories[name]; exists {
		return aierrors.New("registry", "register_factory",
			fmt.Errorf("provider factory %q already registered", name))
	}

	r.factories[name] = factory
	r.configs[name] = cfg
	return nil
}

// RegisterInstance adds a pre-built provider for a tag+model pair.
// Used by callers that construct providers themselves (and by tests).
func (r *Registry) RegisterInstance(tag, model string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[instanceKey(tag, model)] = p
}

// Provider returns a provider instance for the given tag configured for
// the given model, creating and caching it on first use.
func (r *Registry) Provider(tag, model string) (Provider, error) {
	key := instanceKey(tag, model)

	r.mu.RLock()
	if p, ok := r.instances[key]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	factory, ok := r.factories[tag]
	cfg := r.configs[tag]
	r.mu.RUnlock()

	if !ok {
		return nil, aierrors.New("registry", "resolve",
			fmt.Errorf("%w: %q", aierrors.ErrProviderUnavailable, tag))
	}

	p, err := factory.Create(cfg.WithOptions(config.WithModel(model)))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another goroutine may have raced us here; keep the first instance.
	if existing, ok := r.instances[key]; ok {
		return existing, nil
	}
	r.instances[key] = p
	return p, nil
}

// List returns the registered provider tags
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.factories))
	for name := range r.factories {
		result = append(result, name)
	}
	return result
}

func instanceKey(tag, model string) string {
	return tag + "/" + model
}
