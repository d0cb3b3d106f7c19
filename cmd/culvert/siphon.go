// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/machinebox/progress"

	"github.com/u-root/culvert/pkg/soc"
)

// parse32 accepts the usual register notations: decimal, 0x hex and
// 0 octal.
func parse32(arg string) (uint32, error) {
	v, err := strconv.ParseUint(arg, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a 32-bit address or length: %w", arg, err)
	}
	return uint32(v), nil
}

// siphonOut copies a chip region to w, reporting progress on stderr so
// the payload itself can go to stdout.
func siphonOut(chip *soc.Chip, what string, addr, length uint32, w io.Writer) error {
	pw := progress.NewWriter(w)
	stop := reportProgress(pw, what, int64(length))
	n, err := chip.SiphonOut(addr, length, pw)
	stop()
	if err != nil {
		return fmt.Errorf("%s: %d bytes out, then: %w", what, n, err)
	}
	return nil
}

// siphonIn copies r into a chip region, same reporting arrangement.
func siphonIn(chip *soc.Chip, what string, addr, length uint32, r io.Reader) error {
	pr := progress.NewReader(r)
	stop := reportProgress(pr, what, int64(length))
	n, err := chip.SiphonIn(addr, length, pr)
	stop()
	if err != nil {
		return fmt.Errorf("%s: %d bytes in, then: %w", what, n, err)
	}
	return nil
}

// reportProgress ticks percentages to stderr until the transfer
// completes or the returned stop function is called.
func reportProgress(c progress.Counter, what string, size int64) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress.NewTicker(ctx, c, size, 200*time.Millisecond) {
			fmt.Fprintf(os.Stderr, "%s: %d %%\r", what, int(p.Percent()))
		}
		fmt.Fprintln(os.Stderr)
	}()
	return func() {
		cancel()
		<-done
	}
}
