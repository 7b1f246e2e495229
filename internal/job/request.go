// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package job

import (
	"math"

	"github.com/ZSC714725/loopmate/internal/chapters"
)

// Request describes a chapter computation
type Request struct {
	Reference string           `json:"reference"`
	Paths     []string         `json:"paths"`
	Padding   chapters.Padding `json:"padding"`
}

// MaxPaddingSeconds bounds the gap between two clips
const MaxPaddingSeconds = 24 * 60 * 60

// Validate checks the request before it is queued
func (r *Request) Validate() error {
	p := r.Padding.Seconds
	if p < 0 || p > MaxPaddingSeconds || math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidPadding
	}
	for _, path := range r.Paths {
		if path == "" {
			return ErrEmptyPath
		}
	}
	return nil
}

// clone copies the request so callers can't mutate a running job
func (r *Request) clone() Request {
	c := *r
	c.Paths = append([]string(nil), r.Paths...)
	return c
}
