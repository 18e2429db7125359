package registry_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-handle/chain"
	"github.com/saiset-co/sai-handle/logger"
	"github.com/saiset-co/sai-handle/registry"
	"github.com/saiset-co/sai-handle/types"
)

type job struct {
	trail []string
	chain *chain.Chain[job, error]
}

type named struct {
	name   string
	weight int
}

func (n named) Name() string { return n.name }
func (n named) Weight() int  { return n.weight }

func (n named) Call(j *job) *types.Future[error] {
	j.trail = append(j.trail, n.name)
	return j.chain.Next(j)
}

func newRegistry(t *testing.T) *registry.Registry[job, error] {
	t.Helper()
	r, err := registry.New[job, error](logger.NewNop())
	require.NoError(t, err)
	return r
}

func TestRegistry_OrdersByWeight(t *testing.T) {
	r := newRegistry(t)

	require.NoError(t, r.Use(named{name: "auth", weight: 70}))
	require.NoError(t, r.Use(named{name: "recovery", weight: 10}))
	require.NoError(t, r.Use(named{name: "logging", weight: 20}))
	require.NoError(t, r.Finalize())

	assert.Equal(t, []string{"recovery", "logging", "auth"}, r.Names())

	handlers, err := r.Handlers()
	require.NoError(t, err)

	j := &job{chain: chain.New[job, error]()}
	require.NoError(t, chain.Run(context.Background(), j, j.chain, handlers...))
	assert.Equal(t, []string{"recovery", "logging", "auth"}, j.trail)
}

func TestRegistry_Select(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Use(named{name: "a", weight: 1}))
	require.NoError(t, r.Use(named{name: "b", weight: 2}))
	require.NoError(t, r.Use(named{name: "c", weight: 3}))
	require.NoError(t, r.Finalize())

	for i := 0; i < 2; i++ {
		handlers, err := r.Select("b")
		require.NoError(t, err)
		require.Len(t, handlers, 2)
		assert.Equal(t, "a", handlers[0].(named).name)
		assert.Equal(t, "c", handlers[1].(named).name)
	}

	handlers, err := r.Select("c", "a", "c")
	require.NoError(t, err)
	require.Len(t, handlers, 1)
	assert.Equal(t, "b", handlers[0].(named).name)

	// Mutating a returned slice must not leak into later selections.
	handlers[0] = nil
	again, err := r.Select("a", "c")
	require.NoError(t, err)
	assert.NotNil(t, again[0])
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := newRegistry(t)

	assert.ErrorIs(t, r.Register("x", 1, nil), types.ErrHandlerIsNil)
	assert.ErrorIs(t, r.Use(nil), types.ErrHandlerIsNil)
	assert.ErrorIs(t, r.Register("", 1, named{}), types.ErrHandlerNameEmpty)

	require.NoError(t, r.Use(named{name: "a", weight: 1}))
	assert.ErrorIs(t, r.Use(named{name: "a", weight: 2}), types.ErrHandlerExists)
}

func TestRegistry_TooMany(t *testing.T) {
	r := newRegistry(t)
	for i := 0; i < registry.MaxHandlers; i++ {
		require.NoError(t, r.Use(named{name: fmt.Sprintf("h%d", i), weight: i}))
	}
	assert.ErrorIs(t, r.Use(named{name: "overflow", weight: 1000}), types.ErrTooManyHandlers)
}

func TestRegistry_DuplicateWeight(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Use(named{name: "a", weight: 5}))
	require.NoError(t, r.Use(named{name: "b", weight: 5}))

	assert.ErrorIs(t, r.Finalize(), types.ErrDuplicateWeight)
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := newRegistry(t)

	_, err := r.Handlers()
	assert.ErrorIs(t, err, types.ErrRegistryNotFinalized)

	require.NoError(t, r.Use(named{name: "a", weight: 1}))
	require.NoError(t, r.Finalize())
	assert.ErrorIs(t, r.Finalize(), types.ErrRegistryFinalized)
	assert.ErrorIs(t, r.Use(named{name: "b", weight: 2}), types.ErrRegistryFinalized)

	r.Clear()
	assert.Empty(t, r.Names())
	require.NoError(t, r.Use(named{name: "b", weight: 2}))
	require.NoError(t, r.Finalize())
	assert.Equal(t, []string{"b"}, r.Names())
}

func TestRegistry_RegisterRacingFinalize(t *testing.T) {
	for round := 0; round < 50; round++ {
		r := newRegistry(t)
		start := make(chan struct{})

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				errs[i] = r.Use(named{name: fmt.Sprintf("h%d", i), weight: i})
			}()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			assert.NoError(t, r.Finalize())
		}()

		close(start)
		wg.Wait()

		registered := 0
		for _, err := range errs {
			if err == nil {
				registered++
				continue
			}
			assert.ErrorIs(t, err, types.ErrRegistryFinalized)
		}
		assert.Len(t, r.Names(), registered)
	}
}
