// Package retry provides stock retry policies.
//
// A field declares one policy prototype per failure kind; the state
// machine clones them for each fill, so a prototype can be shared by
// every field and every dialogue:
//
//	var oneMore = retry.Budget(1)
//
//	formfill.Field[Registration]{
//	    Name: "age",
//	    Type: formfill.TypeInteger,
//	    Retries: map[formfill.FailureKind]formfill.RetryPolicy{
//	        formfill.FailureTimeout:    retry.Budget(2),
//	        formfill.FailureConverting: oneMore,
//	        formfill.FailureValidation: oneMore,
//	    },
//	    ...
//	}
//
// Anything richer than a fixed budget (time-of-day aware retries, per
// user quotas) is a custom formfill.RetryPolicy implementation.
package retry

import (
	"sync"

	"github.com/fieldworks/formfill"
)

// Budget returns a policy that grants up to n retries. Clone returns an
// unused copy, so the returned value is a safe prototype for any number
// of concurrent fills.
func Budget(n int) formfill.RetryPolicy {
	if n < 0 {
		n = 0
	}
	return &budget{max: n}
}

type budget struct {
	mu    sync.Mutex
	max   int
	tried int
}

func (b *budget) CanTry() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tried < b.max
}

func (b *budget) RecordAttempt() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tried++
}

func (b *budget) Snapshot() formfill.RetrySnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return formfill.RetrySnapshot{
		AttemptsTried: b.tried,
		MaxAttempts:   b.max,
		CanTry:        b.tried < b.max,
	}
}

func (b *budget) Clone() formfill.RetryPolicy {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &budget{max: b.max}
}
