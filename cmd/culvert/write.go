// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/u-root/culvert/pkg/logger"
)

func writeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Copy stdin into a chip memory region",
	}
	cmd.AddCommand(writeRAMCmd())
	return cmd
}

func writeRAMCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ram ADDRESS LENGTH [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Load stdin into DRAM",
		Long: "Load LENGTH bytes from stdin into DRAM at ADDRESS. The region\n" +
			"must sit inside DRAM and stdin must supply every byte; a short\n" +
			"input leaves whatever was already written in place.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rest, s, err := newSession(args, true)
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
			length, err := parse32(rest[1])
			if err != nil {
				return err
			}

			logger.Sugar().Infof("loading %d bytes to %#08x", length, addr)
			return siphonIn(s.chip, "ram", addr, length, os.Stdin)
		},
	}
}
