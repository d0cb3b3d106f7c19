// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/u-root/culvert/pkg/logger"
)

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Reset the SoC through the watchdog",
		Long: "Reset the SoC through the watchdog.\n\n" +
			"The whole chip goes through reset, which usually takes the\n" +
			"bridge connection down with it; a failure releasing the bridge\n" +
			"afterwards is expected.",
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

			wdt, err := s.chip.WDT()
			if err != nil {
				return err
			}
			logger.Sugar().Infof("resetting %s", s.chip.Name())
			return wdt.ResetSoC()
		},
	}
}
