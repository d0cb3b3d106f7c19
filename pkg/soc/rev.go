// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

import "fmt"

// Generation is the controller family, which decides the memory layout
// and the on-chip controller set. Steppings within a family share both.
type Generation int

const (
	AST2400 Generation = iota
	AST2500
	AST2600
)

func (g Generation) String() string {
	switch g {
	case AST2400:
		return "AST2400"
	case AST2500:
		return "AST2500"
	case AST2600:
		return "AST2600"
	}
	return fmt.Sprintf("Generation(%d)", int(g))
}

// Silicon revision registers. Families up to the AST2500 report in
// SCU7C; the AST2600 moved the revision to SCU04 with the stepping
// refined in SCU14.
const (
	scuBase    = 0x1e6e2000
	scuRevOld  = scuBase + 0x7c
	scuRev2600 = scuBase + 0x04
	scuRevStep = scuBase + 0x14
)

type revision struct {
	gen  Generation
	name string
}

var revisions = map[uint32]revision{
	0x02000303: {AST2400, "AST2400-A0"},
	0x02010303: {AST2400, "AST2400-A1"},

	0x04000303: {AST2500, "AST2500-A0"},
	0x04010303: {AST2500, "AST2500-A1"},
	0x04030303: {AST2500, "AST2500-A2"},

	0x05000303: {AST2600, "AST2600-A0"},
	0x05010303: {AST2600, "AST2600-A1"},
	0x05020303: {AST2600, "AST2600-A2"},
	0x05030303: {AST2600, "AST2600-A3"},
}

// UnrecognizedChipError reports identification registers that matched no
// known generation. Rev is whatever the chip answered, for the log.
type UnrecognizedChipError struct {
	Rev uint32
}

func (e *UnrecognizedChipError) Error() string {
	return fmt.Sprintf("unrecognized chip, revision register %#08x", e.Rev)
}
