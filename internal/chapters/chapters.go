// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具
//
// Package chapters turns an ordered list of clips into chapter timestamps
// for a video description.

package chapters

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ZSC714725/loopmate/internal/logger"
)

// FallbackLabel is used when no file name can be derived from a path
const FallbackLabel = "Unknown"

// Lookup resolves the duration of a media file in seconds
type Lookup interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// LookupFunc adapts a plain function to Lookup
type LookupFunc func(ctx context.Context, path string) (float64, error)

func (f LookupFunc) Duration(ctx context.Context, path string) (float64, error) {
	return f(ctx, path)
}

// Padding is a fixed gap inserted between clips
type Padding struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Seconds float64 `json:"seconds" yaml:"seconds"`
}

func (p Padding) gap() float64 {
	if !p.Enabled || p.Seconds <= 0 || math.IsNaN(p.Seconds) || math.IsInf(p.Seconds, 0) {
		return 0
	}
	return p.Seconds
}

// Line is one chapter entry
type Line struct {
	Offset float64
	Label  string
}

// Timestamp returns the formatted offset of the line
func (l Line) Timestamp() string {
	return FormatOffset(l.Offset)
}

func (l Line) String() string {
	return l.Timestamp() + " - " + l.Label
}

// Failure records a clip whose duration could not be resolved.
// The clip still has a line; it contributed 0 seconds to later offsets.
type Failure struct {
	Index int
	Path  string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("clip %d (%s): %v", f.Index, f.Path, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Result of a computation
type Result struct {
	Lines    []Line
	Failures []Failure
}

// Partial reports whether any duration lookup failed
func (r Result) Partial() bool {
	return len(r.Failures) > 0
}

// String returns the lines joined by newlines, ready to paste
func (r Result) String() string {
	lines := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = l.String()
	}
	return strings.Join(lines, "\n")
}

// resolution is the outcome of a single lookup: either a duration or an error
type resolution struct {
	seconds float64
	err     error
}

func resolve(ctx context.Context, lookup Lookup, path string) resolution {
	d, err := lookup.Duration(ctx, path)
	if err != nil {
		return resolution{err: err}
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return resolution{err: fmt.Errorf("%w: invalid duration %v", ErrDurationUnavailable, d)}
	}
	return resolution{seconds: d}
}

// Compute builds the chapter lines for paths.
//
// Fewer than two paths yield an empty result. Lookups run one at a time in
// input order since every offset depends on all previous durations. A failed
// lookup counts as 0 seconds and is reported in Result.Failures.
func Compute(ctx context.Context, paths []string, lookup Lookup, padding Padding) Result {
	if len(paths) < 2 {
		return Result{}
	}

	res := Result{Lines: make([]Line, 0, len(paths))}
	gap := padding.gap()
	offset := 0.0

	for i, path := range paths {
		res.Lines = append(res.Lines, Line{Offset: offset, Label: Label(path)})

		r := resolve(ctx, lookup, path)
		if r.err != nil {
			res.Failures = append(res.Failures, Failure{Index: i, Path: path, Err: r.err})
		} else {
			offset += r.seconds
		}

		if i < len(paths)-1 {
			offset += gap
		}
	}

	return res
}

// Calculator computes chapters with a fixed lookup and logs lookup failures
type Calculator struct {
	lookup Lookup
	logger logger.Logger
}

// NewCalculator creates a Calculator. A nil logger discards diagnostics.
func NewCalculator(lookup Lookup, log logger.Logger) *Calculator {
	if log == nil {
		log = logger.Nop()
	}
	return &Calculator{lookup: lookup, logger: log}
}

// Compute runs Compute with the calculator's lookup
func (c *Calculator) Compute(ctx context.Context, paths []string, padding Padding) Result {
	res := Compute(ctx, paths, c.lookup, padding)
	for _, f := range res.Failures {
		c.logger.Error("duration lookup failed for %s, counting it as 0s: %v", f.Path, f.Err)
	}
	c.logger.Debug("computed %d chapter lines (%d failed lookups)", len(res.Lines), len(res.Failures))
	return res
}
