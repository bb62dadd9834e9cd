// Package retry wraps operations prone to transient failure.
//
// The policy is asymmetric: up to MaxRetries failing attempts are swallowed,
// logged and retried after Delay; then one final attempt runs unguarded and
// whatever it returns goes straight back to the caller. An operation therefore
// runs at most MaxRetries+1 times and the last failure is never hidden.
package retry

import (
	"time"

	"github.com/downfa11-org/fixedwidth/pkg/metrics"
	"github.com/downfa11-org/fixedwidth/util"
)

const (
	DefaultMaxRetries = 3
	DefaultDelay      = time.Second
)

type Policy struct {
	MaxRetries int
	Delay      time.Duration
	// Retryable reports whether a failure may be retried. Nil retries everything.
	Retryable func(error) bool

	sleep func(time.Duration)
}

func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, Delay: DefaultDelay}
}

// WithSleep returns a copy of p that waits using fn instead of time.Sleep.
func (p Policy) WithSleep(fn func(time.Duration)) Policy {
	p.sleep = fn
	return p
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p Policy) wait() {
	if p.Delay <= 0 {
		return
	}
	if p.sleep != nil {
		p.sleep(p.Delay)
		return
	}
	time.Sleep(p.Delay)
}

// Do runs op under p. name identifies the operation in logs and metrics.
func Do[T any](p Policy, name string, op func() (T, error)) (T, error) {
	retries := 0
	for retries < p.MaxRetries {
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !p.retryable(err) {
			return v, err
		}
		retries++
		metrics.RetryAttempts.WithLabelValues(name).Inc()
		util.Info("Function: %s. Error: %v. Retrying %d/%d...", name, err, retries, p.MaxRetries)
		p.wait()
	}

	// final attempt
	v, err := op()
	if err != nil && p.MaxRetries > 0 {
		metrics.RetryExhausted.WithLabelValues(name).Inc()
		util.Error("Function: %s. Failed after %d retries: %v", name, p.MaxRetries, err)
	}
	return v, err
}

// Wrap returns fn decorated with p.
func Wrap[A, T any](p Policy, name string, fn func(A) (T, error)) func(A) (T, error) {
	return func(a A) (T, error) {
		return Do(p, name, func() (T, error) { return fn(a) })
	}
}
