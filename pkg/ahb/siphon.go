// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ahb

import (
	"errors"
	"fmt"
	"io"
)

// SiphonWindow is the unit of one bulk transfer between the AHB and a
// byte stream. It bounds the per-call buffer and keeps individual bridge
// transactions short enough that a wedged transport surfaces quickly.
const SiphonWindow = 64 << 10

// SiphonOut streams length bytes starting at addr into w, one window at
// a time. The whole range is validated against the accessor's window
// before the first byte moves. On a mid-transfer failure it returns the
// bytes already delivered together with the error; nothing is retried
// and nothing already written to w is taken back.
func SiphonOut(a Accessor, addr, length uint32, w io.Writer) (int64, error) {
	if !a.Window().ContainsRange(addr, length) {
		return 0, fmt.Errorf("siphon %#08x+%#x via %s: %w", addr, length, a.Name(), ErrOutOfRange)
	}

	buf := make([]byte, SiphonWindow)
	var done int64
	for length > 0 {
		win := uint32(SiphonWindow)
		if length < win {
			win = length
		}
		n, err := a.Read(addr, buf[:win])
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			done += int64(wn)
			if werr != nil {
				return done, fmt.Errorf("sink: %w", werr)
			}
		}
		if err != nil {
			return done, err
		}
		addr += win
		length -= win
	}
	return done, nil
}

// SiphonIn streams up to length bytes from r onto the bus starting at
// addr, in the same window size. A source that dries up before length
// bytes ends the transfer early with ErrShortInput, which is distinct
// from a transport failure; the byte count reported is what actually
// reached the bus.
func SiphonIn(a Accessor, addr, length uint32, r io.Reader) (int64, error) {
	if !a.Window().ContainsRange(addr, length) {
		return 0, fmt.Errorf("siphon %#08x+%#x via %s: %w", addr, length, a.Name(), ErrOutOfRange)
	}

	buf := make([]byte, SiphonWindow)
	var done int64
	for length > 0 {
		win := uint32(SiphonWindow)
		if length < win {
			win = length
		}
		rn, rerr := io.ReadFull(r, buf[:win])
		if rn > 0 {
			n, err := a.Write(addr, buf[:rn])
			done += int64(n)
			if err != nil {
				return done, err
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
				return done, ErrShortInput
			}
			return done, fmt.Errorf("source: %w", rerr)
		}
		addr += win
		length -= win
	}
	return done, nil
}
