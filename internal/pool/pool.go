// Package pool runs bounded-concurrency maps over inputs while keeping
// results in input order.
package pool

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/visibility-cli/internal/metrics"
)

// Func is the per-item work a pool runs.
type Func[T, U any] func(ctx context.Context, in T) (U, error)

// Workers clamps n to [1, max(1, items)].
func Workers(n, items int) int {
	if items < 1 {
		items = 1
	}
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Map applies fn to every input with at most maxWorkers calls in flight.
// out[i] is always fn(inputs[i]). The first error from fn cancels the
// remaining work and is returned; wrap fn with Total for partial results.
func Map[T, U any](ctx context.Context, inputs []T, maxWorkers int, fn Func[T, U]) ([]U, error) {
	out := make([]U, len(inputs))
	if len(inputs) == 0 {
		return out, nil
	}

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for range Workers(maxWorkers, len(inputs)) {
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return context.Cause(gctx)
				}
				i := int(next.Add(1) - 1)
				if i >= len(inputs) {
					return nil
				}
				res, err := run(gctx, fn, inputs[i])
				if err != nil {
					return err
				}
				out[i] = res
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// MapSeq is Map over an iterator of unknown length. Workers pull items one
// at a time, so no more than maxWorkers items are buffered.
func MapSeq[T, U any](ctx context.Context, seq iter.Seq[T], maxWorkers int, fn Func[T, U]) ([]U, error) {
	pull, stop := iter.Pull(seq)
	defer stop()

	var (
		mu  sync.Mutex
		out []U
	)
	take := func() (int, T, bool) {
		mu.Lock()
		defer mu.Unlock()
		in, ok := pull()
		if !ok {
			return 0, in, false
		}
		var zero U
		out = append(out, zero)
		return len(out) - 1, in, true
	}
	put := func(i int, res U) {
		mu.Lock()
		out[i] = res
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for range Workers(maxWorkers, maxWorkers) {
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return context.Cause(gctx)
				}
				i, in, ok := take()
				if !ok {
					return nil
				}
				res, err := run(gctx, fn, in)
				if err != nil {
					return err
				}
				put(i, res)
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []U{}
	}
	return out, nil
}

func run[T, U any](ctx context.Context, fn Func[T, U], in T) (U, error) {
	metrics.PoolInFlight.Inc()
	defer metrics.PoolInFlight.Dec()

	res, err := fn(ctx, in)
	if err != nil {
		metrics.PoolTasks.WithLabelValues("error").Inc()
		return res, err
	}
	metrics.PoolTasks.WithLabelValues("ok").Inc()
	return res, nil
}

// Total makes fn infallible for batch callers: a failure is logged and
// replaced by fallback(in, err) so the pool keeps positional results.
// Cancellation is not swallowed; it still aborts the pool.
func Total[T, U any](name string, fn Func[T, U], fallback func(in T, err error) U) Func[T, U] {
	return func(ctx context.Context, in T) (U, error) {
		res, err := fn(ctx, in)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return res, context.Cause(ctx)
		}
		metrics.PoolTasks.WithLabelValues("fallback").Inc()
		zap.L().Warn("pool: item failed, using fallback",
			zap.String("task", name),
			zap.Error(err),
		)
		return fallback(in, err), nil
	}
}
