// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package chapters

import (
	"fmt"
	"math"
	"strings"
)

// MaxOffset is the largest offset FormatOffset renders; larger values clamp to it
const MaxOffset = 1 << 53

// FormatOffset renders seconds as MM:SS, or HH:MM:SS from one hour on.
// Fractions are truncated, not rounded.
func FormatOffset(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	if seconds > MaxOffset {
		seconds = MaxOffset
	}
	total := int64(math.Floor(seconds))

	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if total < 3600 {
		return fmt.Sprintf("%02d:%02d", m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Label derives a chapter title from a path: the last segment split on
// '/' or '\' with its extension removed.
func Label(path string) string {
	name := path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return FallbackLabel
	}
	return name
}
