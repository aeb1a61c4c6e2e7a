// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package exec provides the execution adapters used by bigseq to run
// independent work units in parallel, in-process or distributed on a
// bigmachine cluster. Work is expressed as named funcs (see Register)
// applied to gob-encodable arguments; an Executor maps a func over an
// ordered list of arguments and collects the replies in submission
// order. The adapters make no promises beyond positional
// correspondence of arguments to replies: retries, back-pressure, and
// placement are the business of the underlying execution system.
package exec

import "context"

// An Executor runs a set of independent work units and collects their
// results. Implementations must treat the units as pure functions of
// their arguments: units may run concurrently, on any machine, in any
// order.
type Executor interface {
	// Map invokes the func registered under name once for each
	// element of args, placing the func's return value for args[i]
	// into replies[i]. The args and replies slices must have equal
	// length. Map returns when every unit has completed, or with the
	// first error encountered, in which case replies is invalid.
	Map(ctx context.Context, name string, args, replies []interface{}) error
}
