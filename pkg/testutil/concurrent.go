// Package testutil holds helpers shared by package tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"leasekeeper/internal/sentinel"
	dErrors "leasekeeper/pkg/domain-errors"
)

// ConcurrentResult counts how racing calls ended.
type ConcurrentResult struct {
	Successes  int32
	Conflicts  int32
	Duplicates int32
	Errors     int32
}

// RunConcurrent starts n goroutines, releases them at once and waits for all
// of them. Conflicts and duplicates are recognised both as store sentinels
// and as domain error codes.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		start sync.WaitGroup
		done  sync.WaitGroup
		out   [4]atomic.Int32
	)
	start.Add(1)
	done.Add(n)

	for i := range n {
		go func() {
			defer done.Done()
			start.Wait()
			out[classify(fn(i))].Add(1)
		}()
	}
	start.Done()
	done.Wait()

	return &ConcurrentResult{
		Successes:  out[0].Load(),
		Conflicts:  out[1].Load(),
		Duplicates: out[2].Load(),
		Errors:     out[3].Load(),
	}
}

func classify(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeConflict):
		return 1
	case errors.Is(err, sentinel.ErrDuplicate):
		return 2
	default:
		return 3
	}
}
