package registry

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-handle/types"
)

const (
	CacheSize   = 512
	MaxHandlers = 64
)

type Entry[C, O any] struct {
	Name    string
	Weight  int
	Handler types.Handler[C, O]
}

// Registry collects named handlers and, once finalized, hands out their
// ascending-weight order for loading into a chain.
type Registry[C, O any] struct {
	logger      types.Logger
	entries     map[string]*Entry[C, O]
	ordered     []Entry[C, O]
	selections  *lru.Cache[string, []types.Handler[C, O]]
	mu          sync.RWMutex
	initialized atomic.Bool
}

func New[C, O any](logger types.Logger) (*Registry[C, O], error) {
	selections, err := lru.New[string, []types.Handler[C, O]](CacheSize)
	if err != nil {
		return nil, types.WrapError(err, "failed to create selection cache")
	}

	return &Registry[C, O]{
		logger:     logger,
		entries:    make(map[string]*Entry[C, O]),
		selections: selections,
	}, nil
}

func (r *Registry[C, O]) Use(m types.Middleware[C, O]) error {
	if m == nil {
		return types.ErrHandlerIsNil
	}
	return r.Register(m.Name(), m.Weight(), m)
}

func (r *Registry[C, O]) Register(name string, weight int, handler types.Handler[C, O]) error {
	if handler == nil {
		return types.ErrHandlerIsNil
	}

	if name == "" {
		return types.ErrHandlerNameEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized.Load() {
		return types.Errorf(types.ErrRegistryFinalized, "cannot register %s", name)
	}

	if _, exists := r.entries[name]; exists {
		return types.Errorf(types.ErrHandlerExists, "name: %s", name)
	}

	if len(r.entries) >= MaxHandlers {
		return types.Errorf(types.ErrTooManyHandlers, "maximum handler count: %d", MaxHandlers)
	}

	r.entries[name] = &Entry[C, O]{
		Name:    name,
		Weight:  weight,
		Handler: handler,
	}

	if r.logger != nil {
		r.logger.Debug("Handler registered", zap.String("name", name), zap.Int("weight", weight))
	}

	return nil
}

func (r *Registry[C, O]) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized.Load() {
		return types.ErrRegistryFinalized
	}

	weights := make(map[int]string, len(r.entries))
	for name, entry := range r.entries {
		if existingName, exists := weights[entry.Weight]; exists {
			return types.Errorf(types.ErrDuplicateWeight, "weight %d for handlers '%s' and '%s'",
				entry.Weight, existingName, name)
		}
		weights[entry.Weight] = name
	}

	r.ordered = make([]Entry[C, O], 0, len(r.entries))
	for _, entry := range r.entries {
		r.ordered = append(r.ordered, *entry)
	}

	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].Weight < r.ordered[j].Weight
	})

	r.entries = nil
	r.initialized.Store(true)

	if r.logger != nil {
		r.logger.Info("Handler registry finalized", zap.Strings("order", r.namesLocked()))
	}

	return nil
}

// Handlers returns every registered handler in weight order. The slice is
// a copy; the handlers themselves are shared.
func (r *Registry[C, O]) Handlers() ([]types.Handler[C, O], error) {
	return r.Select()
}

// Select returns the weight-ordered handlers minus the disabled names.
// Results are cached per disabled set.
func (r *Registry[C, O]) Select(disabled ...string) ([]types.Handler[C, O], error) {
	if !r.initialized.Load() {
		return nil, types.ErrRegistryNotFinalized
	}

	key := selectionKey(disabled)
	if handlers, ok := r.selections.Get(key); ok {
		return slices.Clone(handlers), nil
	}

	r.mu.RLock()
	handlers := make([]types.Handler[C, O], 0, len(r.ordered))
	for _, entry := range r.ordered {
		if !slices.Contains(disabled, entry.Name) {
			handlers = append(handlers, entry.Handler)
		}
	}
	r.mu.RUnlock()

	r.selections.Add(key, handlers)

	return slices.Clone(handlers), nil
}

func (r *Registry[C, O]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry[C, O]) namesLocked() []string {
	names := make([]string, 0, len(r.ordered))
	for _, entry := range r.ordered {
		names = append(names, entry.Name)
	}
	return names
}

func (r *Registry[C, O]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ordered = nil
	r.entries = make(map[string]*Entry[C, O])
	r.selections.Purge()
	r.initialized.Store(false)

	if r.logger != nil {
		r.logger.Info("Handler registry cleared")
	}
}

func selectionKey(disabled []string) string {
	if len(disabled) == 0 {
		return "default"
	}

	sorted := slices.Clone(disabled)
	sort.Strings(sorted)
	return "d:" + strings.Join(slices.Compact(sorted), ",")
}
