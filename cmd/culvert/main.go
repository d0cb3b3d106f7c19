// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// culvert is a test and debug tool for BMC AHB interfaces. It reaches
// the chip's internal bus over whichever transport is actually wired up
// (/dev/mem, P2A, iLPC2AHB, JTAG or the debug UART) and builds every
// command on that one access path.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/u-root/culvert/config"
	"github.com/u-root/culvert/pkg/ahb"
	"github.com/u-root/culvert/pkg/bridge"
	"github.com/u-root/culvert/pkg/host"
	"github.com/u-root/culvert/pkg/logger"
	"github.com/u-root/culvert/pkg/soc"
)

var (
	flagVerbose     bool
	flagQuiet       bool
	flagSkipBridges []string
	flagListBridges bool
	flagConfig      string
	flagTarget      string

	cfg *config.Config
	reg *bridge.Registry
)

func main() {
	root := &cobra.Command{
		Use:           "culvert",
		Short:         "A test and debug tool for BMC AHB interfaces",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case flagVerbose:
				logger.SetLevel(zapcore.DebugLevel)
			case flagQuiet:
				logger.SetLevel(zapcore.ErrorLevel)
			}

			var err error
			if cfg, err = config.Load(afero.NewOsFs(), flagConfig); err != nil {
				return err
			}
			reg = bridge.ConfiguredRegistry(bridge.DriverConfig{
				DebugTTY: cfg.DebugTTY,
				JTAGPins: cfg.JTAGPins,
			})
			for _, name := range flagSkipBridges {
				if err := reg.Disable(name); err != nil {
					return fmt.Errorf("%w (use --list-bridges)", err)
				}
			}
			if flagListBridges {
				for _, d := range reg.List() {
					state := "enabled"
					if !d.Enabled {
						state = "disabled"
					}
					fmt.Printf("%-8s priority %-3d %s\n", d.Name, d.Priority, state)
				}
				os.Exit(0)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Get verbose output")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	pf.StringSliceVarP(&flagSkipBridges, "skip-bridge", "s", nil, "Skip the named bridge driver")
	pf.BoolVar(&flagListBridges, "list-bridges", false, "List available bridge drivers")
	pf.StringVar(&flagConfig, "config", config.DefaultPath, "Preset file")
	pf.StringVar(&flagTarget, "target", "", "Use a connection preset from the config")

	root.AddCommand(
		readCmd(),
		writeCmd(),
		devmemCmd(),
		probeCmd(),
		resetCmd(),
		consoleCmd(),
		coprocessorCmd(),
	)

	if err := root.Execute(); err != nil {
		logger.Sugar().Error(err)
		hintPrivilege(err)
		os.Exit(1)
	}
}

// hintPrivilege points the user at escalation when negotiation failed
// on permissions rather than absent hardware.
func hintPrivilege(err error) {
	var nbe *host.NoBridgeError
	if errors.As(err, &nbe) && nbe.PrivilegeDenied {
		fmt.Fprintf(os.Stderr, "%s requires privileged access for the local bridges; try again as root\n", os.Args[0])
	}
}

// splitVia separates a command's own arguments from the trailing
// `via INTERFACE [HOST PORT USERNAME PASSWORD]` clause and resolves the
// connection options, folding in the --target preset if one was named.
func splitVia(args []string) ([]string, bridge.Opts, error) {
	var opts bridge.Opts

	for i, a := range args {
		if a == "via" {
			parsed, err := host.ParseVia(args[i+1:])
			if err != nil {
				return nil, bridge.Opts{}, err
			}
			opts = parsed
			args = args[:i]
			break
		}
	}

	if flagTarget != "" {
		if opts.Interface != "" {
			return nil, bridge.Opts{}, fmt.Errorf("--target and a via clause are mutually exclusive: %w", host.ErrMalformedConnection)
		}
		tgt, ok := cfg.Targets[flagTarget]
		if !ok {
			return nil, bridge.Opts{}, fmt.Errorf("no target %q in %s", flagTarget, flagConfig)
		}
		opts = bridge.Opts{
			Interface: tgt.Interface,
			Host:      tgt.Host,
			Port:      tgt.Port,
			Username:  tgt.Username,
			Password:  tgt.Password,
		}
	}

	return args, opts, nil
}

// session bundles the negotiated accessor and, when asked for, the
// probed chip. Close releases them in reverse order; the accessor is
// only released here, never by the chip.
type session struct {
	ab   ahb.Accessor
	chip *soc.Chip
}

func newSession(args []string, probeChip bool) ([]string, *session, error) {
	rest, opts, err := splitVia(args)
	if err != nil {
		return nil, nil, err
	}
	ab, err := host.Negotiate(reg, opts)
	if err != nil {
		return nil, nil, err
	}
	s := &session{ab: ab}
	if probeChip {
		chip, err := soc.Probe(ab)
		if err != nil {
			ab.Release()
			return nil, nil, err
		}
		s.chip = chip
	}
	return rest, s, nil
}

func (s *session) Close() {
	if s.chip != nil {
		s.chip.Close()
	}
	if err := s.ab.Release(); err != nil {
		logger.Sugar().Warnf("releasing %s bridge: %v", s.ab.Name(), err)
	}
}
