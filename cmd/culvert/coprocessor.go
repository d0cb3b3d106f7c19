// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/u-root/culvert/pkg/logger"
)

// The AST2600 SSP owns a fixed 32MiB carve-out, the first half of it
// cacheable.
const (
	coprocMemSize    = 32 << 20
	coprocCachedSize = 16 << 20
)

func coprocessorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coprocessor",
		Short: "Drive the AST2600 secondary service processor",
	}
	cmd.AddCommand(coprocessorRunCmd(), coprocessorStopCmd())
	return cmd
}

func coprocessorRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run ADDRESS LENGTH [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Load firmware from stdin and start the coprocessor",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rest, s, err := newSession(args, true)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := cobra.ExactArgs(2)(cmd, rest); err != nil {
				return err
			}
			memBase, err := parse32(rest[0])
			if err != nil {
				return err
			}
			memSize, err := parse32(rest[1])
			if err != nil {
				return err
			}
			if memSize != coprocMemSize {
				return fmt.Errorf("coprocessor memory must be exactly %dMiB", coprocMemSize>>20)
			}
			if !s.chip.DRAM().ContainsRange(memBase, memSize) {
				return fmt.Errorf("region %#08x+%#x is not contained in DRAM %s", memBase, memSize, s.chip.DRAM())
			}

			scu, err := s.chip.SCU()
			if err != nil {
				return err
			}

			// Hold the coprocessor down before overwriting the memory
			// it may be executing from.
			if err := scu.StopCoprocessor(); err != nil {
				return err
			}
			if err := siphonIn(s.chip, "firmware", memBase, memSize, os.Stdin); err != nil {
				return err
			}

			logger.Sugar().Infof("starting coprocessor at %#08x", memBase)
			return scu.StartCoprocessor(memBase, memSize, coprocCachedSize)
		},
	}
}

func coprocessorStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Hold the coprocessor in reset",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rest, s, err := newSession(args, true)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := cobra.NoArgs(cmd, rest); err != nil {
				return err
			}
			scu, err := s.chip.SCU()
			if err != nil {
				return err
			}
			return scu.StopCoprocessor()
		},
	}
}
