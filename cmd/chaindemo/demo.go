package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/saiset-co/sai-handle/chain"
	"github.com/saiset-co/sai-handle/handlers"
	"github.com/saiset-co/sai-handle/registry"
	"github.com/saiset-co/sai-handle/types"
)

// job is the context threaded through the demo chain.
type job struct {
	index int
	trail []string
	chain *chain.Chain[job, error]
}

func newJob(c *chain.Chain[job, error]) *job {
	return &job{chain: c}
}

func (j *job) Pass() string { return j.chain.Pass() }

var next = chain.Via(func(j *job) *chain.Chain[job, error] { return j.chain })

// named gives a plain handler the name and weight a registry needs.
type named struct {
	types.Handler[job, error]
	name   string
	weight int
}

func (n named) Name() string { return n.name }
func (n named) Weight() int  { return n.weight }

// around records entry and exit around the rest of the chain.
func around(name string) types.Handler[job, error] {
	return types.Func[job, error](func(ctx context.Context, j *job) error {
		j.trail = append(j.trail, name+">")
		err := next(j).Await(ctx)
		j.trail = append(j.trail, "<"+name)
		return err
	})
}

// bump increments the job index before delegating.
func bump(name string) types.Handler[job, error] {
	return types.HandlerFunc[job, error](func(j *job) *types.Future[error] {
		j.index++
		j.trail = append(j.trail, name)
		return next(j)
	})
}

type demo struct {
	registry *registry.Registry[job, error]
	counters []*handlers.Counter[job, error]
}

// newDemo registers the enabled built-ins followed by the demo handlers:
// fn-style handlers fa, fb, fc and three counting stages.
func newDemo(cfg *types.Config, deps registry.Deps) (*demo, error) {
	r, err := registry.New[job, error](deps.Logger)
	if err != nil {
		return nil, err
	}

	if err = registry.RegisterBuiltins(r, next, cfg.Handlers, deps); err != nil {
		return nil, err
	}

	d := &demo{registry: r}

	for _, m := range []types.Middleware[job, error]{
		named{Handler: around("fa"), name: "fa", weight: 100},
		named{Handler: bump("fb"), name: "fb", weight: 110},
		named{Handler: bump("fc"), name: "fc", weight: 120},
	} {
		if err = r.Use(m); err != nil {
			return nil, err
		}
	}

	for i, name := range []string{"sa", "sb", "sc"} {
		counter := handlers.NewCounter(next, name, 130+10*i)
		if err = r.Use(counter); err != nil {
			return nil, err
		}
		d.counters = append(d.counters, counter)
	}

	if err = r.Finalize(); err != nil {
		return nil, err
	}

	return d, nil
}

type passResult struct {
	pass  string
	index int
	trail []string
	err   error
}

func (p passResult) String() string {
	status := "ok"
	if p.err != nil {
		status = p.err.Error()
	}
	return fmt.Sprintf("pass=%s index=%d trail=%s status=%s", p.pass, p.index, strings.Join(p.trail, " "), status)
}

// run drives passes traversals of one job, reloading the chain each time.
func (d *demo) run(ctx context.Context, c *chain.Chain[job, error], passes int, disabled ...string) ([]passResult, error) {
	selected, err := d.registry.Select(disabled...)
	if err != nil {
		return nil, err
	}
	hs := chain.Arrange(c.Order(), selected)

	j := newJob(c)
	results := make([]passResult, 0, passes)

	for range passes {
		j.trail = nil
		err := chain.Run(ctx, j, j.chain, hs...)
		results = append(results, passResult{pass: j.Pass(), index: j.index, trail: j.trail, err: err})
	}

	return results, nil
}
