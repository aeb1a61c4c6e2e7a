// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package exec

import (
	"context"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/limiter"
	"golang.org/x/sync/errgroup"
)

// Local returns an executor that runs work units in-process, in
// separate goroutines, with at most parallelism units in flight at a
// time. If parallelism <= 0, the executor runs GOMAXPROCS units at a
// time.
func Local(parallelism int) Executor {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	l := &localExecutor{limiter: limiter.New()}
	l.limiter.Release(parallelism)
	return l
}

type localExecutor struct {
	limiter *limiter.Limiter
}

func (l *localExecutor) Map(ctx context.Context, name string, args, replies []interface{}) error {
	if len(args) != len(replies) {
		return errors.E(errors.Invalid, "exec.Local: args and replies length mismatch")
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := range args {
		i := i
		g.Go(func() error {
			if err := l.limiter.Acquire(ctx, 1); err != nil {
				return err
			}
			defer l.limiter.Release(1)
			reply, err := Call(ctx, name, args[i])
			if err != nil {
				return err
			}
			replies[i] = reply
			return nil
		})
	}
	return g.Wait()
}
