// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigseq

import (
	"fmt"
	"sync"

	"github.com/grailbio/base/errors"
)

// attrs is the in-process registry of built indexes, keyed by object
// identity. Preprocess populates it; Handle.Attrs consults it.
var attrs = struct {
	sync.Mutex
	m map[string]*Index
}{m: make(map[string]*Index)}

func attrKey(h *Handle) string {
	return fmt.Sprintf("%s:%d", h.URL, h.SizeBytes)
}

func registerIndex(h *Handle, index *Index) {
	attrs.Lock()
	defer attrs.Unlock()
	attrs.m[attrKey(h)] = index
}

// Attrs is a read-only view over an object's index metadata.
type Attrs struct {
	index *Index
}

// Attrs returns the attributes of the object named by h. It fails
// with a Precondition error if no index has been built for h in this
// process: attribute access never triggers preprocessing implicitly.
func (h *Handle) Attrs() (Attrs, error) {
	attrs.Lock()
	index, ok := attrs.m[attrKey(h)]
	attrs.Unlock()
	if !ok {
		return Attrs{}, errors.E(errors.Precondition,
			fmt.Sprintf("bigseq: no index for %s; call Preprocess first", h.URL))
	}
	return Attrs{index: index}, nil
}

// NumSequences returns the number of sequence records in the object.
func (a Attrs) NumSequences() int { return a.index.RecordCount }
