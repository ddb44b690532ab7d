/*
Overlay modes
Copyright (C) 2026 Ivan Latunov

This program is free software; you can redistribute it and/or modify it under
the terms of the GNU General Public License as published by the Free Software
Foundation; either version 2 of the License, or (at your option) any later
version.

This program is distributed in the hope that it will be useful, but WITHOUT ANY
WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
PARTICULAR PURPOSE.  See the GNU General Public License for more details.

You should have received a copy of the GNU General Public License along with
this program; if not, write to the Free Software Foundation, Inc., 59 Temple
Place, Suite 330, Boston, MA 02111-1307 USA
*/

package overlay

import (
	"fmt"
	"strings"
)

// Mode selects how two frames are composited.
type Mode int

const (
	Normal Mode = iota
	DualColor
	Difference
	SSIMMap
	Blend
	Flicker
	Checkerboard
	SideBySide
)

// Modes lists every mode in display order.
var Modes = []Mode{Normal, DualColor, Difference, SSIMMap, Blend, Flicker, Checkerboard, SideBySide}

var modeNames = map[Mode]string{
	Normal:       "normal",
	DualColor:    "dual_color",
	Difference:   "difference",
	SSIMMap:      "ssim_map",
	Blend:        "blend",
	Flicker:      "flicker",
	Checkerboard: "checkerboard",
	SideBySide:   "side_by_side",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts a mode name, case-insensitively, with '-' or '_'.
func ParseMode(s string) (Mode, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, m := range Modes {
		if modeNames[m] == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown overlay mode %q", s)
}
