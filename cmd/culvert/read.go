// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/u-root/culvert/pkg/logger"
	"github.com/u-root/culvert/pkg/soc"
)

func readCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Copy a chip memory region to stdout",
	}
	cmd.AddCommand(readRAMCmd(), readFirmwareCmd())
	return cmd
}

func readRAMCmd() *cobra.Command {
	var flagStart, flagLength string

	cmd := &cobra.Command{
		Use:   "ram [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Dump DRAM to stdout",
		Long: "Dump DRAM to stdout.\n\n" +
			"Without -S and -L the whole of DRAM less the VRAM carve-out is\n" +
			"dumped; with them, exactly the region given, which must sit\n" +
			"inside DRAM.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rest, s, err := newSession(args, true)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := cobra.NoArgs(cmd, rest); err != nil {
				return err
			}

			dram := s.chip.DRAM()
			vram := s.chip.VRAM()

			var window = soc.DumpRAMWindow(dram, vram)
			switch {
			case flagStart != "" && flagLength != "":
				start, err := parse32(flagStart)
				if err != nil {
					return err
				}
				length, err := parse32(flagLength)
				if err != nil {
					return err
				}
				if !dram.ContainsRange(start, length) {
					return fmt.Errorf("region %#08x+%#x is not contained in DRAM %s", start, length, dram)
				}
				window.Start, window.Length = start, length
			case flagStart != "" || flagLength != "":
				return fmt.Errorf("-S and -L go together")
			default:
				logger.Sugar().Infof("%dMiB DRAM with %dMiB VRAM; dumping %dMiB (%#08x-%#08x)",
					dram.Length>>20, vram.Length>>20, window.Length>>20,
					window.Start, window.Start+window.Length-1)
			}

			return siphonOut(s.chip, "ram", window.Start, window.Length, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&flagStart, "start", "S", "", "Start address of the region to dump")
	cmd.Flags().StringVarP(&flagLength, "length", "L", "", "Length of the region to dump")
	return cmd
}

func readFirmwareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "firmware [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Dump the firmware flash to stdout",
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

			fmc, err := s.chip.FMC()
			if err != nil {
				return err
			}
			if err := fmc.EnableRead(); err != nil {
				return fmt.Errorf("enabling flash reads: %w", err)
			}

			window := fmc.Window()
			logger.Sugar().Infof("exfiltrating %dMiB of flash from %s", window.Length>>20, window)
			return siphonOut(s.chip, "firmware", window.Start, window.Length, os.Stdout)
		},
	}
}
