// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ahb

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange means an address or address+length fell outside the
	// transport's addressable window or a known region. Detected before
	// any bus traffic.
	ErrOutOfRange = errors.New("address out of range")

	// ErrShortInput means the source stream of a SiphonIn ran out before
	// the requested length was consumed. The transfer stops at that point;
	// this is not a transport failure.
	ErrShortInput = errors.New("short input stream")
)

// TransportError wraps a failure reported by the bridge driver during an
// open, read or write. The layers above never retry these.
type TransportError struct {
	Interface string
	Op        string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Interface, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
