// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"testing"

	"github.com/u-root/culvert/pkg/bridge"
)

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts bridge.Opts
		ok   bool
	}{
		{"empty", bridge.Opts{}, true},
		{"interface only", bridge.Opts{Interface: "ilpc"}, true},
		{"all five", bridge.Opts{Interface: "debug", Host: "h", Port: 2217, Username: "u", Password: "p"}, true},
		{"blank password", bridge.Opts{Interface: "debug", Host: "h", Port: 2217, Username: "u"}, false},
		{"blank username", bridge.Opts{Interface: "debug", Host: "h", Port: 2217, Password: "p"}, false},
		{"missing port", bridge.Opts{Interface: "debug", Host: "h", Username: "u", Password: "p"}, false},
		{"host only", bridge.Opts{Interface: "debug", Host: "h"}, false},
		{"orphan host", bridge.Opts{Host: "h"}, false},
	} {
		err := Validate(tc.opts)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrMalformedConnection) {
			t.Errorf("%s: got %v, want ErrMalformedConnection", tc.name, err)
		}
	}
}

func TestParseVia(t *testing.T) {
	opts, err := ParseVia([]string{"debug", "con.example.net", "2217", "admin", "secret"})
	if err != nil {
		t.Fatalf("ParseVia: %v", err)
	}
	want := bridge.Opts{Interface: "debug", Host: "con.example.net", Port: 2217, Username: "admin", Password: "secret"}
	if opts != want {
		t.Errorf("ParseVia = %+v, want %+v", opts, want)
	}

	if _, err := ParseVia([]string{"ilpc", "stray"}); !errors.Is(err, ErrMalformedConnection) {
		t.Errorf("trailing fields after interface-only: got %v, want ErrMalformedConnection", err)
	}
	if _, err := ParseVia([]string{"debug", "h", "2217", "u", ""}); !errors.Is(err, ErrMalformedConnection) {
		t.Errorf("blank password: got %v, want ErrMalformedConnection", err)
	}
	if _, err := ParseVia([]string{"debug", "h", "notaport", "u", "p"}); !errors.Is(err, ErrMalformedConnection) {
		t.Errorf("unparseable port: got %v, want ErrMalformedConnection", err)
	}
}
