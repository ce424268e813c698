// Package control starts and stops groups of agents, the philosophers at the
// table and the producers and consumers around the ring, on demand.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/berth-dev/mesa/internal/buffer"
	"github.com/berth-dev/mesa/internal/config"
	"github.com/berth-dev/mesa/internal/observe"
	"github.com/berth-dev/mesa/internal/pace"
	"github.com/berth-dev/mesa/internal/table"
)

// Kind names a group of agents that start and stop together.
type Kind string

const (
	KindPhilosophers Kind = "philosophers"
	KindProducer     Kind = "producer"
	KindConsumer     Kind = "consumer"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindPhilosophers, KindProducer, KindConsumer}

// Params tune one Start. Zero values fall back to the configuration.
type Params struct {
	// Count is how many producers or consumers to run. The table always
	// seats every philosopher, so it is ignored for KindPhilosophers.
	Count int
	// Limit caps each producer's pushes or consumer's pops over its
	// lifetime. Philosophers keep the configured meal limit.
	Limit int
}

var (
	ErrAlreadyRunning = errors.New("already running")
	ErrNotRunning     = errors.New("not running")
	ErrUnknownKind    = errors.New("unknown agent kind")
	ErrClosed         = errors.New("controller is shut down")
)

type group struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller owns the table and the ring for its whole lifetime. Agents come
// and go; the shared structures they work on do not.
type Controller struct {
	cfg  config.Config
	obs  observe.Observer
	seed uint64

	table *table.Table
	ring  *buffer.Ring
	seq   *buffer.Sequence

	mu        sync.Mutex
	ctx       context.Context
	closeAll  context.CancelFunc
	closed    bool
	groups    map[Kind]*group
	producers []*buffer.Producer
	consumers []*buffer.Consumer
	wg        sync.WaitGroup
}

// New builds the table and the ring described by cfg.
func New(cfg config.Config, obs observe.Observer) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	obs = observe.OrNop(obs)

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	policy, err := table.ParsePolicy(cfg.Table.Policy)
	if err != nil {
		return nil, err
	}
	tbl, err := table.New(table.Config{
		Seats:    cfg.Table.Seats,
		Policy:   policy,
		ThinkMax: cfg.Table.ThinkMax(),
		EatMax:   cfg.Table.EatMax(),
		Meals:    cfg.Table.Meals,
		Seed:     seed,
	}, obs)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:      cfg,
		obs:      obs,
		seed:     seed,
		table:    tbl,
		ring:     buffer.NewRing(cfg.Buffer.Capacity, obs),
		seq:      &buffer.Sequence{},
		ctx:      ctx,
		closeAll: cancel,
		groups:   make(map[Kind]*group),
	}, nil
}

// Config returns the configuration the controller was built from.
func (c *Controller) Config() config.Config { return c.cfg }

// Seed returns the seed every delay stream derives from.
func (c *Controller) Seed() uint64 { return c.seed }

// Table returns the philosophers' table.
func (c *Controller) Table() *table.Table { return c.table }

// Ring returns the shared buffer.
func (c *Controller) Ring() *buffer.Ring { return c.ring }

// Start launches the agents of kind in the background.
func (c *Controller) Start(kind Kind, params Params) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if _, ok := c.groups[kind]; ok {
		return fmt.Errorf("%s: %w", kind, ErrAlreadyRunning)
	}

	var run func(ctx context.Context) error
	switch kind {
	case KindPhilosophers:
		run = c.table.Run
	case KindProducer:
		run = c.producerRun(params)
	case KindConsumer:
		run = c.consumerRun(params)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	ctx, cancel := context.WithCancel(c.ctx)
	g := &group{cancel: cancel, done: make(chan struct{})}
	c.groups[kind] = g
	c.obs.OnAgent(string(kind), true)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(g.done)
		defer cancel()

		_ = run(ctx)

		c.mu.Lock()
		if c.groups[kind] == g {
			delete(c.groups, kind)
		}
		c.mu.Unlock()
		c.obs.OnAgent(string(kind), false)
	}()
	return nil
}

// Stop cancels the agents of kind and waits until they have all exited.
func (c *Controller) Stop(kind Kind) error {
	c.mu.Lock()
	g, ok := c.groups[kind]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", kind, ErrNotRunning)
	}
	g.cancel()
	<-g.done
	return nil
}

// Toggle stops kind if it is running and starts it with default params
// otherwise. It returns whether kind is running afterwards.
func (c *Controller) Toggle(kind Kind) (bool, error) {
	if c.Running(kind) {
		if err := c.Stop(kind); err != nil && !errors.Is(err, ErrNotRunning) {
			return true, err
		}
		return false, nil
	}
	if err := c.Start(kind, Params{}); err != nil {
		return false, err
	}
	return true, nil
}

// Running reports whether agents of kind are active.
func (c *Controller) Running(kind Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.groups[kind]
	return ok
}

// Wait blocks until every started agent has exited, whether by reaching
// its limit or by being stopped.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Shutdown stops every kind and refuses further starts.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.closeAll()
	c.wg.Wait()
}

// Stats is a point-in-time summary of everything the controller owns.
type Stats struct {
	Meals     []int
	Total     int
	Progress  string
	Produced  int
	Consumed  int
	Occupancy int
	Capacity  int
}

// Stats collects current counters.
func (c *Controller) Stats() Stats {
	s := Stats{
		Meals:     c.table.Meals(),
		Total:     c.table.Total(),
		Progress:  c.table.Tally().Progress(),
		Occupancy: c.ring.Len(),
		Capacity:  c.ring.Cap(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.producers {
		s.Produced += p.Produced()
	}
	for _, q := range c.consumers {
		s.Consumed += q.Consumed()
	}
	return s
}

func (c *Controller) count(requested, configured int) int {
	switch {
	case requested > 0:
		return requested
	case configured > 0:
		return configured
	default:
		return 1
	}
}

// producerRun grows the producer pool to the requested size and returns a
// func running the first n of them. Must be called with c.mu held.
func (c *Controller) producerRun(params Params) func(context.Context) error {
	n := c.count(params.Count, c.cfg.Buffer.Producers)
	limit := params.Limit
	if limit == 0 {
		limit = c.cfg.Buffer.Items
	}
	for i := len(c.producers); i < n; i++ {
		var values buffer.ValueFunc = buffer.Sequential
		if c.cfg.Buffer.Values != config.ValuesSequential {
			values = buffer.Random(pace.Seed(c.seed, 1000+i))
		}
		c.producers = append(c.producers, &buffer.Producer{
			ID:     i,
			Ring:   c.ring,
			Delay:  pace.New(c.cfg.Buffer.ProduceMax(), pace.Seed(c.seed, 2000+i)),
			Values: values,
			Seq:    c.seq,
		})
	}
	agents := c.producers[:n]
	for _, p := range agents {
		p.Limit = limit
	}
	return func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, p := range agents {
			g.Go(func() error { return p.Run(gctx) })
		}
		return g.Wait()
	}
}

// consumerRun is producerRun for consumers.
func (c *Controller) consumerRun(params Params) func(context.Context) error {
	n := c.count(params.Count, c.cfg.Buffer.Consumers)
	limit := params.Limit
	if limit == 0 {
		limit = c.cfg.Buffer.Items
	}
	for i := len(c.consumers); i < n; i++ {
		c.consumers = append(c.consumers, &buffer.Consumer{
			ID:    i,
			Ring:  c.ring,
			Delay: pace.New(c.cfg.Buffer.ConsumeMax(), pace.Seed(c.seed, 3000+i)),
		})
	}
	agents := c.consumers[:n]
	for _, q := range agents {
		q.Limit = limit
	}
	return func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, q := range agents {
			g.Go(func() error { return q.Run(gctx) })
		}
		return g.Wait()
	}
}
