// Package pool runs a function over ordered units of work with bounded
// parallelism and returns the results in submission order.
package pool

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/downfa11-org/fixedwidth/pkg/metrics"
	"github.com/downfa11-org/fixedwidth/util"
	"golang.org/x/sync/errgroup"
)

// Cloner is implemented by arguments that must not be shared between workers.
type Cloner[A any] interface {
	Clone() A
}

// UnitError identifies the unit whose failure aborted the pool.
type UnitError struct {
	Pool  string
	Index int
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: unit %d: %v", e.Pool, e.Index, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// DefaultWorkers is the number of logical CPUs.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// FromSlice adapts a slice to a unit sequence.
func FromSlice[U any](units []U) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		for _, u := range units {
			if !yield(u, nil) {
				return
			}
		}
	}
}

// Run calls fn once per unit using at most workers concurrent goroutines. Each
// call receives its own copy of arg when arg implements Cloner.
// The next unit is pulled from units only once a worker slot is free, so at
// most workers units are held at a time.
//
// The first failure cancels ctx for the remaining work: units not yet started
// are skipped, units already running finish. Completed results are not rolled
// back, so anything they persisted stays where it is.
func Run[U, A, R any](ctx context.Context, name string, fn func(ctx context.Context, unit U, arg A) (R, error), arg A, workers int, units iter.Seq2[U, error]) ([]R, error) {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	g, gctx := errgroup.WithContext(ctx)
	// A failing unit cancels runCtx before giving up its slot, so the loop
	// never pulls another unit past a failure.
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()
	slots := make(chan struct{}, workers)

	var (
		mu      sync.Mutex
		results []R
	)
	store := func(i int, r R) {
		mu.Lock()
		defer mu.Unlock()
		for len(results) <= i {
			var zero R
			results = append(results, zero)
		}
		results[i] = r
	}

	next, stop := iter.Pull2(units)
	defer stop()

	util.Info("Starting %d workers for %s", workers, name)
	start := time.Now()
	submitted := 0
	var sourceErr error

	for {
		select {
		case slots <- struct{}{}:
		case <-runCtx.Done():
		}
		if runCtx.Err() != nil {
			break
		}

		unit, err, ok := next()
		if !ok {
			<-slots
			break
		}
		if err != nil {
			<-slots
			sourceErr = fmt.Errorf("%s: read unit %d: %w", name, submitted, err)
			break
		}

		i := submitted
		a := isolate(arg)
		submitted++

		g.Go(func() (err error) {
			defer func() {
				if err != nil {
					cancel()
				}
				<-slots
			}()
			if runCtx.Err() != nil {
				return nil
			}
			metrics.UnitsInFlight.WithLabelValues(name).Inc()
			unitStart := time.Now()
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
				}
				metrics.UnitsInFlight.WithLabelValues(name).Dec()
				metrics.ObserveUnit(name, time.Since(unitStart).Seconds(), err)
				if err != nil {
					err = &UnitError{Pool: name, Index: i, Err: err}
					util.Error("%v", err)
				}
			}()

			r, err := fn(runCtx, unit, a)
			if err != nil {
				return err
			}
			store(i, r)
			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr != nil {
		return nil, waitErr
	}
	if sourceErr != nil {
		util.Error("%v", sourceErr)
		return nil, sourceErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	util.Info("All %d units completed for %s in %s", submitted, name, time.Since(start))
	return results, nil
}

func isolate[A any](arg A) A {
	if c, ok := any(arg).(Cloner[A]); ok {
		return c.Clone()
	}
	return arg
}
