package autorouter

import (
	"context"
	"sync"

	"github.com/google/uuid"

	errs "github.com/matzehuels/orthoroute/pkg/errors"
)

// AsyncOptions configures a queued routing pass.
type AsyncOptions struct {
	// Callback receives the pass result exactly once. It runs on the
	// worker goroutine without the graph locked, so it may call back into
	// the graph, except Close.
	Callback func(*Result)

	// Incremental runs an Update pass instead of a full RouteSync pass.
	Incremental bool
}

// Ticket is the single-resolution handle of a queued pass.
type Ticket struct {
	ID string

	done   chan struct{}
	result *Result
	err    error
}

// Done is closed once the pass has completed and its callback returned.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Wait blocks until the pass completes or ctx ends.
func (t *Ticket) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dispatcher queues async passes FIFO behind a single worker goroutine,
// started on the first request.
type dispatcher struct {
	mu      sync.Mutex
	pending []*request
	started bool
	closed  bool

	signal  chan struct{}
	stopped chan struct{}
}

type request struct {
	ticket *Ticket
	opts   AsyncOptions
}

// RouteAsync queues a routing pass and returns immediately. Passes run one
// at a time in the order they were requested; a new request made while one
// is outstanding waits behind it. After Close it fails with ErrCodeClosed.
func (g *Graph) RouteAsync(opts AsyncOptions) (*Ticket, error) {
	d := &g.async
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, errs.New(errs.ErrCodeClosed, "graph is closed")
	}
	t := &Ticket{ID: uuid.NewString(), done: make(chan struct{})}
	d.pending = append(d.pending, &request{ticket: t, opts: opts})
	if !d.started {
		d.started = true
		go g.work()
	}
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
	return t, nil
}

// Close stops accepting async requests, waits for queued passes to finish
// and stops the worker. It is safe to call more than once.
func (g *Graph) Close() error {
	d := &g.async
	d.mu.Lock()
	d.closed = true
	started := d.started
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
	if started {
		<-d.stopped
	}
	return nil
}

func (g *Graph) work() {
	d := &g.async
	defer close(d.stopped)
	for {
		d.mu.Lock()
		if len(d.pending) == 0 {
			closed := d.closed
			d.mu.Unlock()
			if closed {
				return
			}
			<-d.signal
			continue
		}
		req := d.pending[0]
		d.pending = d.pending[1:]
		d.mu.Unlock()

		g.serve(req)
	}
}

func (g *Graph) serve(req *request) {
	ctx := context.Background()
	g.mu.Lock()
	res, err := g.pass(ctx, !req.opts.Incremental)
	g.mu.Unlock()
	if err != nil {
		g.logger.Warn("async routing pass failed", "ticket", req.ticket.ID, "error", err)
	}

	req.ticket.result, req.ticket.err = res, err
	if req.opts.Callback != nil {
		req.opts.Callback(res)
	}
	close(req.ticket.done)
}
