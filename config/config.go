// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the tool's compiled-in defaults and the optional
// preset file. Presets name frequently used targets so a console-server
// password does not have to travel on the command line every run.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Target is one saved connection parameter set.
type Target struct {
	Interface string `yaml:"interface"`
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
}

// Config is everything the CLI layer can tune without recompiling.
type Config struct {
	// DebugTTY overrides the serial device the debug bridge opens in
	// local mode.
	DebugTTY string `yaml:"debug_tty,omitempty"`

	// JTAGPins are the GPIO line numbers for TCK, TMS, TDI, TDO.
	JTAGPins [4]int `yaml:"jtag_pins,omitempty"`

	// Targets maps preset names to saved connection parameters.
	Targets map[string]Target `yaml:"targets,omitempty"`
}

// DefaultPath is where Load looks unless told otherwise.
const DefaultPath = "/etc/culvert.yaml"

var DefaultConfig = &Config{
	DebugTTY: "/dev/ttyUSB0",
	JTAGPins: [4]int{480, 481, 482, 483},
}

// Load reads the preset file from fs, falling back to the defaults when
// the file does not exist. A present but unparsable file is an error;
// silently running with defaults against the wrong BMC is worse.
func Load(fsys afero.Fs, path string) (*Config, error) {
	b, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		c := *DefaultConfig
		return &c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	c := *DefaultConfig
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}
