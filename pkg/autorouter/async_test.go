package autorouter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orthoroute/pkg/autorouter"
	errs "github.com/matzehuels/orthoroute/pkg/errors"
)

func diagonalScene(t *testing.T) *autorouter.Graph {
	t.Helper()
	g := autorouter.NewGraph()
	addBox(t, g, "a", 100, 100)
	addBox(t, g, "b", 900, 900)
	addBox(t, g, "c", 900, 100)
	connect(t, g, ref("a", "bottom"), ref("b", "top"))
	connect(t, g, ref("a", "top"), ref("c", "top"))
	connect(t, g, ref("c", "bottom"), ref("b", "top"))
	return g
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRouteAsync_MatchesSync(t *testing.T) {
	sync1 := diagonalScene(t)
	want, err := sync1.RouteSync(context.Background())
	require.NoError(t, err)

	g := diagonalScene(t)
	defer g.Close()
	var (
		mu    sync.Mutex
		calls int
		got   *autorouter.Result
	)
	ticket, err := g.RouteAsync(autorouter.AsyncOptions{Callback: func(r *autorouter.Result) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		got = r
	}})
	require.NoError(t, err)
	res, err := ticket.Wait(waitCtx(t))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "callback runs exactly once")
	assert.Same(t, res, got)
	require.Len(t, res.Paths, len(want.Paths))
	for i := range want.Paths {
		assert.Equal(t, want.Paths[i].Src, res.Paths[i].Src)
		assert.Equal(t, want.Paths[i].Points, res.Paths[i].Points)
		assert.Equal(t, autorouter.Routed, res.Paths[i].State)
	}
}

func TestRouteAsync_RunsInRequestOrder(t *testing.T) {
	g := diagonalScene(t)
	defer g.Close()

	var (
		mu    sync.Mutex
		order []int
	)
	tickets := make([]*autorouter.Ticket, 5)
	for i := range tickets {
		tk, err := g.RouteAsync(autorouter.AsyncOptions{
			Incremental: i%2 == 1,
			Callback: func(*autorouter.Result) {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, i)
			},
		})
		require.NoError(t, err)
		tickets[i] = tk
	}
	for _, tk := range tickets {
		_, err := tk.Wait(waitCtx(t))
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRouteAsync_CallbackBeforeDone(t *testing.T) {
	g := diagonalScene(t)
	defer g.Close()

	called := make(chan struct{})
	ticket, err := g.RouteAsync(autorouter.AsyncOptions{Callback: func(*autorouter.Result) { close(called) }})
	require.NoError(t, err)

	<-ticket.Done()
	select {
	case <-called:
	default:
		t.Fatal("ticket resolved before its callback ran")
	}
}

func TestRouteAsync_CallbackMayReadGraph(t *testing.T) {
	g := diagonalScene(t)
	defer g.Close()

	var paths []autorouter.Path
	ticket, err := g.RouteAsync(autorouter.AsyncOptions{Callback: func(*autorouter.Result) {
		paths = g.Paths()
	}})
	require.NoError(t, err)
	_, err = ticket.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Len(t, paths, 3)
}

func TestClose(t *testing.T) {
	g := diagonalScene(t)
	ticket, err := g.RouteAsync(autorouter.AsyncOptions{})
	require.NoError(t, err)

	require.NoError(t, g.Close())
	select {
	case <-ticket.Done():
	default:
		t.Fatal("Close must drain queued passes")
	}

	_, err = g.RouteAsync(autorouter.AsyncOptions{})
	assert.True(t, errs.Is(err, errs.ErrCodeClosed))
	assert.NoError(t, g.Close(), "Close is idempotent")

	_, err = g.RouteSync(context.Background())
	assert.NoError(t, err, "synchronous routing still works after Close")
}

func TestClose_WithoutAsync(t *testing.T) {
	g := autorouter.NewGraph()
	assert.NoError(t, g.Close())
}

func TestTicket_WaitHonorsContext(t *testing.T) {
	g := diagonalScene(t)
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ticket, err := g.RouteAsync(autorouter.AsyncOptions{})
	require.NoError(t, err)

	// Either outcome is valid: the pass may already be done.
	if _, err := ticket.Wait(ctx); err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
	_, err = ticket.Wait(waitCtx(t))
	assert.NoError(t, err)
}
