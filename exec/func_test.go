// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package exec

import (
	"context"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
)

func init() {
	Register("functest.Upper", func(ctx context.Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	})
	Register("functest.Fail", func(ctx context.Context, s string) (string, error) {
		return "", errors.New("planned failure: " + s)
	})
}

func TestCall(t *testing.T) {
	ctx := context.Background()
	reply, err := Call(ctx, "functest.Upper", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := reply.(string), "HELLO"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := Call(ctx, "functest.Fail", "x"); err == nil {
		t.Error("expected error")
	}
	if _, err := Call(ctx, "functest.NoSuchFunc", "x"); !errors.Is(errors.NotExist, err) {
		t.Errorf("expected NotExist error, got %v", err)
	}
	if _, err := Call(ctx, "functest.Upper", 123); !errors.Is(errors.Invalid, err) {
		t.Errorf("expected Invalid error, got %v", err)
	}
	if _, err := Call(ctx, "functest.Upper", nil); !errors.Is(errors.Invalid, err) {
		t.Errorf("expected Invalid error, got %v", err)
	}
}

func TestRegisterShape(t *testing.T) {
	for _, fn := range []interface{}{
		42,
		func() {},
		func(s string) (string, error) { return s, nil },
		func(ctx context.Context, s string) string { return s },
		func(ctx context.Context, s string) (string, string) { return s, s },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic registering %T", fn)
				}
			}()
			Register("functest.Bad", fn)
		}()
	}
}
