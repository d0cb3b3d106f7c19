// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"testing"

	"github.com/spf13/afero"
)

func TestLoadMissingFileFallsBack(t *testing.T) {
	c, err := Load(afero.NewMemMapFs(), "/etc/culvert.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DebugTTY != DefaultConfig.DebugTTY {
		t.Errorf("DebugTTY = %q, want default %q", c.DebugTTY, DefaultConfig.DebugTTY)
	}
}

func TestLoadPresets(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/etc/culvert.yaml", []byte(`
debug_tty: /dev/ttyS4
targets:
  lab-bmc:
    interface: debug
    host: con.lab.example.net
    port: 2217
    username: admin
    password: hunter2
`), 0o600)

	c, err := Load(fs, "/etc/culvert.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DebugTTY != "/dev/ttyS4" {
		t.Errorf("DebugTTY = %q, want /dev/ttyS4", c.DebugTTY)
	}
	tgt, ok := c.Targets["lab-bmc"]
	if !ok {
		t.Fatalf("lab-bmc preset missing")
	}
	if tgt.Interface != "debug" || tgt.Port != 2217 || tgt.Password != "hunter2" {
		t.Errorf("preset = %+v", tgt)
	}
}

func TestLoadGarbageFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/etc/culvert.yaml", []byte("targets: ["), 0o600)
	if _, err := Load(fs, "/etc/culvert.yaml"); err == nil {
		t.Errorf("unparsable config must not be ignored")
	}
}
