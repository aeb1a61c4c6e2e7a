// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package exec

import (
	"context"
	"encoding/gob"
	"fmt"
	"reflect"
	"sync"

	"github.com/grailbio/base/errors"
)

var typeOfContext = reflect.TypeOf((*context.Context)(nil)).Elem()
var typeOfError = reflect.TypeOf((*error)(nil)).Elem()

// funcs is the global registry of named funcs. Funcs must be
// registered identically in every binary that participates in a
// computation: distributed executors invoke them by name on remote
// machines running the same binary, so registration should happen at
// init time.
var funcs = struct {
	sync.Mutex
	m map[string]*funcValue
}{m: make(map[string]*funcValue)}

type funcValue struct {
	fn  reflect.Value
	arg reflect.Type
	ret reflect.Type
}

// Register registers fn under the provided name so that executors may
// invoke it, locally or remotely. The func must have the form
//
//	func(ctx context.Context, arg A) (R, error)
//
// where A and R are gob-encodable types. Register panics if the func
// has the wrong shape or if the name is already taken. Register is
// typically called from package init functions so that driver and
// worker binaries carry identical registries.
func Register(name string, fn interface{}) {
	fv := reflect.ValueOf(fn)
	ftype := fv.Type()
	if ftype.Kind() != reflect.Func {
		panic(fmt.Sprintf("exec.Register %s: argument is a %T, not a func", name, fn))
	}
	if ftype.NumIn() != 2 || ftype.In(0) != typeOfContext {
		panic(fmt.Sprintf("exec.Register %s: func must take (context.Context, arg)", name))
	}
	if ftype.NumOut() != 2 || ftype.Out(1) != typeOfError {
		panic(fmt.Sprintf("exec.Register %s: func must return (reply, error)", name))
	}
	v := &funcValue{fn: fv, arg: ftype.In(1), ret: ftype.Out(0)}
	// Gob must know the concrete argument and reply types so that
	// they can travel as interface values in executor RPCs.
	if v.arg.Kind() != reflect.Interface {
		gob.Register(reflect.Zero(v.arg).Interface())
	}
	if v.ret.Kind() != reflect.Interface {
		gob.Register(reflect.Zero(v.ret).Interface())
	}
	funcs.Lock()
	defer funcs.Unlock()
	if _, ok := funcs.m[name]; ok {
		panic(fmt.Sprintf("exec.Register %s: already registered", name))
	}
	funcs.m[name] = v
}

// Call invokes the func registered under name with the provided
// argument, returning its reply. Call fails with a NotExist error if
// no func is registered under name, and with an Invalid error if the
// argument's type does not match the func's signature.
func Call(ctx context.Context, name string, arg interface{}) (interface{}, error) {
	funcs.Lock()
	v, ok := funcs.m[name]
	funcs.Unlock()
	if !ok {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("exec.Call %s: no such func", name))
	}
	argv := reflect.ValueOf(arg)
	if arg == nil || !argv.Type().AssignableTo(v.arg) {
		return nil, errors.E(errors.Invalid,
			fmt.Sprintf("exec.Call %s: argument type %T does not match %s", name, arg, v.arg))
	}
	out := v.fn.Call([]reflect.Value{reflect.ValueOf(ctx), argv})
	if err := out[1].Interface(); err != nil {
		return nil, err.(error)
	}
	return out[0].Interface(), nil
}
