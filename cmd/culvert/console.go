// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tarm/serial"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/u-root/culvert/pkg/logger"
	"github.com/u-root/culvert/pkg/soc"
)

// consoleEscape ends the session, same byte telnet uses for ^].
const consoleEscape = 0x1d

func consoleCmd() *cobra.Command {
	var (
		flagTTY  string
		flagBaud int
	)

	cmd := &cobra.Command{
		Use:   "console [via INTERFACE [HOST PORT USERNAME PASSWORD]]",
		Short: "Take over the BMC console UART",
		Long: "Take over the BMC console UART.\n\n" +
			"The UART mux is reprogrammed so the BMC console comes out of the\n" +
			"spare physical port, which is then attached to the local\n" +
			"terminal. Ctrl-] detaches and restores the power-on routing.",
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

			clk, err := s.chip.CLK()
			if err != nil {
				return err
			}
			mux, err := s.chip.UARTMux()
			if err != nil {
				return err
			}

			if err := clk.EnableUART(3); err != nil {
				return err
			}
			if err := mux.Route(soc.RouteCrossover); err != nil {
				return err
			}
			defer func() {
				if err := mux.Restore(); err != nil {
					logger.Sugar().Warnf("restoring uart routing: %v", err)
				}
			}()

			tty := flagTTY
			if tty == "" {
				tty = cfg.DebugTTY
			}
			port, err := serial.OpenPort(&serial.Config{Name: tty, Baud: flagBaud})
			if err != nil {
				return err
			}

			logger.Sugar().Infof("console on %s, escape with Ctrl-]", tty)
			return pumpConsole(port)
		},
	}

	cmd.Flags().StringVarP(&flagTTY, "tty", "t", "", "Local serial port wired to the spare UART")
	cmd.Flags().IntVarP(&flagBaud, "baud", "b", 115200, "Baud rate of the console")
	return cmd
}

// pumpConsole shuttles bytes between the local terminal and the port
// until the escape byte or either side fails.
func pumpConsole(port *serial.Port) error {
	old, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	defer term.Restore(int(os.Stdin.Fd()), old)

	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(os.Stdout, port)
		return err
	})
	g.Go(func() error {
		// Closing the port is what unblocks the reader above.
		defer port.Close()
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return err
			}
			if n == 1 && buf[0] == consoleEscape {
				return nil
			}
			if _, err := port.Write(buf[:n]); err != nil {
				return err
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, os.ErrClosed) {
		err = nil
	}
	return err
}
