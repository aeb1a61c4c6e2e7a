// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package exec

import (
	"context"
	"fmt"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bigmachine"
	"golang.org/x/sync/errgroup"
)

// Bigmachine returns an executor that runs work units on a cluster of
// nmachines machines managed by bigmachine. Machines are started
// lazily on the executor's first Map call and are shut down by
// Shutdown. Because funcs are invoked by name on the remote machines,
// the worker machines run the same binary as the driver, and every
// func must be registered at init time (see Register).
func Bigmachine(system bigmachine.System, nmachines int) *BigmachineExecutor {
	if nmachines < 1 {
		nmachines = 1
	}
	return &BigmachineExecutor{system: system, nmachines: nmachines}
}

// BigmachineExecutor is an Executor that distributes work units over
// a set of bigmachine machines, assigning units round-robin.
type BigmachineExecutor struct {
	system    bigmachine.System
	nmachines int

	once     sync.Once
	b        *bigmachine.B
	machines []*bigmachine.Machine
	err      error
}

type runRequest struct {
	Func string
	Arg  interface{}
}

type runReply struct {
	Value interface{}
}

// worker is the service installed on each machine. It invokes
// registered funcs on behalf of the driver.
type worker struct {
	// Exported satisfies gob: a service must have at least one
	// exported field.
	Exported struct{}
}

func (w *worker) Run(ctx context.Context, req runRequest, reply *runReply) error {
	value, err := Call(ctx, req.Func, req.Arg)
	if err != nil {
		return err
	}
	reply.Value = value
	return nil
}

func (e *BigmachineExecutor) start(ctx context.Context) error {
	e.once.Do(func() {
		e.b = bigmachine.Start(e.system)
		machines, err := e.b.Start(ctx, e.nmachines, bigmachine.Services{"Worker": &worker{}})
		if err != nil {
			e.err = errors.E("exec.Bigmachine: start machines", err)
			return
		}
		for _, m := range machines {
			<-m.Wait(bigmachine.Running)
			if err := m.Err(); err != nil {
				e.err = errors.E(fmt.Sprintf("exec.Bigmachine: machine %s failed to start", m.Addr), err)
				return
			}
			log.Debug.Printf("exec.Bigmachine: machine %v is ready", m.Addr)
		}
		e.machines = machines
	})
	return e.err
}

func (e *BigmachineExecutor) Map(ctx context.Context, name string, args, replies []interface{}) error {
	if len(args) != len(replies) {
		return errors.E(errors.Invalid, "exec.Bigmachine: args and replies length mismatch")
	}
	if err := e.start(ctx); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := range args {
		i := i
		m := e.machines[i%len(e.machines)]
		g.Go(func() error {
			var reply runReply
			if err := m.RetryCall(ctx, "Worker.Run", runRequest{Func: name, Arg: args[i]}, &reply); err != nil {
				return errors.E(fmt.Sprintf("exec.Bigmachine: %s on %s", name, m.Addr), err)
			}
			replies[i] = reply.Value
			return nil
		})
	}
	return g.Wait()
}

// Shutdown tears down the machines started by this executor. It is
// safe to call even if no Map call was ever made.
func (e *BigmachineExecutor) Shutdown() {
	if e.b != nil {
		e.b.Shutdown()
	}
}
