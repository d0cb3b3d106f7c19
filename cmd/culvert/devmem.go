// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// devmem works on the raw accessor without probing the chip, so it
// stays usable on silicon the probe tables do not know.
func devmemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devmem",
		Short: "Scalar bus access through the negotiated bridge",
	}
	cmd.AddCommand(devmemReadCmd(), devmemWriteCmd())
	return cmd
}

func devmemReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read ADDRESS [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Read one 32-bit register",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rest, s, err := newSession(args, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := cobra.ExactArgs(1)(cmd, rest); err != nil {
				return err
			}
			addr, err := parse32(rest[0])
			if err != nil {
				return err
			}
			val, err := s.ab.Read32(addr)
			if err != nil {
				return err
			}
			fmt.Printf("%#08x: %#08x\n", addr, val)
			return nil
		},
	}
}

func devmemWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write ADDRESS VALUE [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Write one 32-bit register",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rest, s, err := newSession(args, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := cobra.ExactArgs(2)(cmd, rest); err != nil {
				return err
			}
			addr, err := parse32(rest[0])
			if err != nil {
				return err
			}
			val, err := parse32(rest[1])
			if err != nil {
				return err
			}
			return s.ab.Write32(addr, val)
		},
	}
}
