package profiles

import (
	"sort"
	"sync"
)

// Registry manages loaded profiles. The built-in profile is always present.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	loader   *Loader
}

// NewRegistry creates a registry that loads from loader on Refresh
func NewRegistry(loader *Loader) *Registry {
	r := &Registry{loader: loader}
	r.reset()
	return r
}

func (r *Registry) reset() {
	builtin := Builtin()
	r.profiles = map[string]*Profile{builtin.Name: builtin}
}

// Refresh reloads all profiles from disk
func (r *Registry) Refresh() error {
	if r.loader == nil {
		return nil
	}
	loaded, err := r.loader.LoadAll()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reset()
	for _, p := range loaded {
		r.profiles[p.Name] = p
	}
	return nil
}

// Get returns a profile by name; empty selects the built-in one
func (r *Registry) Get(name string) (*Profile, error) {
	if name == "" {
		name = DefaultName
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// List returns all profiles sorted by name
func (r *Registry) List() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Register manually adds a profile
func (r *Registry) Register(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name] = p
	return nil
}
