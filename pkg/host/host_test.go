// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/u-root/culvert/pkg/ahb"
	"github.com/u-root/culvert/pkg/bridge"
)

// nullAccessor is the smallest thing that satisfies ahb.Accessor; the
// negotiator only cares about identity and Release.
type nullAccessor struct {
	name     string
	released bool
}

func (n *nullAccessor) Name() string                          { return n.name }
func (n *nullAccessor) Window() ahb.Region                    { return ahb.Region{Start: 0, Length: 0xffffffff} }
func (n *nullAccessor) Read32(uint32) (uint32, error)         { return 0, nil }
func (n *nullAccessor) Write32(uint32, uint32) error          { return nil }
func (n *nullAccessor) Read(_ uint32, b []byte) (int, error)  { return len(b), nil }
func (n *nullAccessor) Write(_ uint32, b []byte) (int, error) { return len(b), nil }
func (n *nullAccessor) Release() error                        { n.released = true; return nil }

type fakeDriver struct {
	name     string
	priority int
	err      error
	opened   int
	lastOpts bridge.Opts
}

func (f *fakeDriver) Name() string  { return f.name }
func (f *fakeDriver) Priority() int { return f.priority }

func (f *fakeDriver) Open(opts bridge.Opts) (ahb.Accessor, error) {
	f.opened++
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &nullAccessor{name: f.name}, nil
}

func TestImplicitPicksHighestPriority(t *testing.T) {
	high := &fakeDriver{name: "high", priority: 10}
	mid := &fakeDriver{name: "mid", priority: 5}
	low := &fakeDriver{name: "low", priority: 1}
	reg := bridge.NewRegistry(low, mid, high)

	a, err := Negotiate(reg, bridge.Opts{})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if a.Name() != "high" {
		t.Errorf("negotiated %q, want the priority-10 driver", a.Name())
	}
	if mid.opened != 0 || low.opened != 0 {
		t.Errorf("lower priority drivers were probed after a success")
	}
}

func TestImplicitSkipsDisabled(t *testing.T) {
	only := &fakeDriver{name: "jtag", priority: 20}
	reg := bridge.NewRegistry(only)
	if err := reg.Disable("jtag"); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	_, err := Negotiate(reg, bridge.Opts{})
	var nbe *NoBridgeError
	if !errors.As(err, &nbe) {
		t.Fatalf("got %v, want NoBridgeError", err)
	}
	if only.opened != 0 {
		t.Errorf("disabled driver was probed %d times, want 0", only.opened)
	}
}

func TestImplicitFallsThroughFailures(t *testing.T) {
	broken := &fakeDriver{name: "devmem", priority: 50, err: errors.New("no such device")}
	works := &fakeDriver{name: "ilpc", priority: 30}
	reg := bridge.NewRegistry(broken, works)

	a, err := Negotiate(reg, bridge.Opts{})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if a.Name() != "ilpc" {
		t.Errorf("negotiated %q, want ilpc", a.Name())
	}
	if broken.opened != 1 {
		t.Errorf("higher priority driver was not attempted first")
	}
}

func TestImplicitExhaustionAggregatesReasons(t *testing.T) {
	reg := bridge.NewRegistry(
		&fakeDriver{name: "devmem", priority: 50, err: errors.New("devmem absent")},
		&fakeDriver{name: "p2a", priority: 40, err: errors.New("p2a absent")},
	)

	_, err := Negotiate(reg, bridge.Opts{})
	var nbe *NoBridgeError
	if !errors.As(err, &nbe) {
		t.Fatalf("got %v, want NoBridgeError", err)
	}
	if nbe.PrivilegeDenied {
		t.Errorf("no permission failure occurred, PrivilegeDenied should be false")
	}
	for _, want := range []string{"devmem absent", "p2a absent"} {
		if !strings.Contains(nbe.Error(), want) {
			t.Errorf("aggregated reasons %q missing %q", nbe.Error(), want)
		}
	}
}

func TestImplicitDistinguishesPrivilege(t *testing.T) {
	reg := bridge.NewRegistry(
		&fakeDriver{name: "devmem", priority: 50, err: os.ErrPermission},
		&fakeDriver{name: "p2a", priority: 40, err: errors.New("absent")},
	)

	_, err := Negotiate(reg, bridge.Opts{})
	var nbe *NoBridgeError
	if !errors.As(err, &nbe) {
		t.Fatalf("got %v, want NoBridgeError", err)
	}
	if !nbe.PrivilegeDenied {
		t.Errorf("permission failure must set PrivilegeDenied")
	}
}

func TestExplicitBypassesRegistryWalk(t *testing.T) {
	local := &fakeDriver{name: "devmem", priority: 50}
	remote := &fakeDriver{name: "debug", priority: 10}
	reg := bridge.NewRegistry(local, remote)

	opts := bridge.Opts{
		Interface: "debug",
		Host:      "console.example.net",
		Port:      2217,
		Username:  "admin",
		Password:  "hunter2",
	}
	a, err := Negotiate(reg, opts)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if a.Name() != "debug" {
		t.Errorf("negotiated %q, want debug", a.Name())
	}
	if local.opened != 0 {
		t.Errorf("explicit mode must not walk the registry")
	}
	if remote.lastOpts != opts {
		t.Errorf("driver saw %+v, want the supplied options", remote.lastOpts)
	}
}

func TestExplicitUnknownInterface(t *testing.T) {
	reg := bridge.NewRegistry(&fakeDriver{name: "devmem", priority: 50})
	_, err := Negotiate(reg, bridge.Opts{Interface: "xdma"})
	if !errors.Is(err, bridge.ErrUnknownDriver) {
		t.Errorf("got %v, want ErrUnknownDriver", err)
	}
}
