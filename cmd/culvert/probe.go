// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/u-root/culvert/pkg/logger"
	"github.com/u-root/culvert/pkg/soc"
)

func probeCmd() *cobra.Command {
	var (
		flagList    bool
		flagIface   string
		flagRequire string
	)

	cmd := &cobra.Command{
		Use:   "probe [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Assess the chip-side bridge controllers",
		Long: "Assess the chip-side bridge controllers.\n\n" +
			"With no flags the aggregate posture is reported; with -r the\n" +
			"command exits non-zero when the discovered posture falls short\n" +
			"of the requirement. Requiring integrity means writes must be\n" +
			"blocked; requiring confidentiality means reads too.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			required := soc.Permissive
			switch flagRequire {
			case "":
			case "integrity":
				required = soc.Restricted
			case "confidentiality":
				required = soc.Disabled
			default:
				return fmt.Errorf("unknown requirement %q: want integrity or confidentiality", flagRequire)
			}

			rest, s, err := newSession(args, true)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := cobra.NoArgs(cmd, rest); err != nil {
				return err
			}

			if flagList {
				statuses, err := s.chip.ListBridgeControllers()
				if err != nil {
					return err
				}
				for _, st := range statuses {
					fmt.Printf("%-8s %s\n", st.Name, st.Level)
				}
				return nil
			}

			discovered, err := s.chip.ProbeBridgeControllers(flagIface)
			if err != nil {
				return err
			}
			logger.Sugar().Infof("%s: discovered posture is %s", s.chip.Name(), discovered)

			if discovered < required {
				return fmt.Errorf("posture is %s, required at least %s", discovered, required)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flagList, "list-interfaces", "l", false, "List the controllers and their postures")
	cmd.Flags().StringVarP(&flagIface, "interface", "i", "", "Probe a single named controller")
	cmd.Flags().StringVarP(&flagRequire, "require", "r", "", "Requirement to probe for (integrity or confidentiality)")
	return cmd
}
