package legal

import (
	"context"
	"fmt"
)

// Outcome is what a single tier produced: a value, or a failure reason.
type Outcome[T any] struct {
	Value T
	OK    bool
	Err   error
}

// Some wraps a successful tier value.
func Some[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, OK: true}
}

// None reports a tier that produced nothing usable.
func None[T any](err error) Outcome[T] {
	return Outcome[T]{Err: err}
}

// Attempt is one fallible tier.
type Attempt[T any] struct {
	Tier Tier
	Run  func(ctx context.Context) Outcome[T]
}

// Resolution is the winning value and the tier that produced it.
type Resolution[T any] struct {
	Value    T
	Tier     Tier
	Failures []error
}

// Resolve runs attempts in order and returns the first successful value.
// When every attempt fails, or ctx is done, rule supplies the value.
// rule must be pure and must not touch the network.
func Resolve[T any](ctx context.Context, rule func() T, attempts ...Attempt[T]) Resolution[T] {
	var failures []error
	for _, a := range attempts {
		if a.Run == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			failures = append(failures, fmt.Errorf("%s tier skipped: %w", a.Tier, err))
			break
		}
		out := runAttempt(ctx, a)
		if out.OK {
			return Resolution[T]{Value: out.Value, Tier: a.Tier, Failures: failures}
		}
		err := out.Err
		if err == nil {
			err = fmt.Errorf("%s tier produced no value", a.Tier)
		} else {
			err = fmt.Errorf("%s tier: %w", a.Tier, err)
		}
		failures = append(failures, err)
	}
	return Resolution[T]{Value: rule(), Tier: TierRule, Failures: failures}
}

func runAttempt[T any](ctx context.Context, a Attempt[T]) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = None[T](fmt.Errorf("panic: %v", r))
		}
	}()
	return a.Run(ctx)
}
