// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package chapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/ZSC714725/loopmate/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookup answers from a map and records the order of calls
type fakeLookup struct {
	durations map[string]float64
	calls     []string
}

func (f *fakeLookup) Duration(_ context.Context, path string) (float64, error) {
	f.calls = append(f.calls, path)
	d, ok := f.durations[path]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrDurationUnavailable, path)
	}
	return d, nil
}

func lines(r Result) []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.String()
	}
	return out
}

func TestComputeShortInput(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"a.mp4": 10}}
	paddings := []Padding{{}, {Enabled: true, Seconds: 5}}

	for _, p := range paddings {
		for _, paths := range [][]string{nil, {}, {"a.mp4"}} {
			res := Compute(context.Background(), paths, lookup, p)
			assert.Empty(t, res.Lines)
			assert.Empty(t, res.Failures)
			assert.Equal(t, "", res.String())
		}
	}
	assert.Empty(t, lookup.calls, "no lookups for fewer than two clips")
}

func TestComputeNoPadding(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"clip1.mp4": 60, "clip2.mp4": 30}}

	res := Compute(context.Background(), []string{"clip1.mp4", "clip2.mp4"}, lookup, Padding{})

	assert.Equal(t, []string{"00:00 - clip1", "01:00 - clip2"}, lines(res))
	assert.False(t, res.Partial())
	assert.Equal(t, "00:00 - clip1\n01:00 - clip2", res.String())
}

func TestComputePaddingBetweenClipsOnly(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"clip1.mp4": 60, "clip2.mp4": 30}}

	res := Compute(context.Background(), []string{"clip1.mp4", "clip2.mp4"}, lookup, Padding{Enabled: true, Seconds: 5})

	assert.Equal(t, []string{"00:00 - clip1", "01:05 - clip2"}, lines(res))
}

func TestComputePaddingDisabledIgnoresSeconds(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"a.mp4": 60, "b.mp4": 30}}

	res := Compute(context.Background(), []string{"a.mp4", "b.mp4"}, lookup, Padding{Enabled: false, Seconds: 5})

	assert.Equal(t, []string{"00:00 - a", "01:00 - b"}, lines(res))
}

func TestComputeIgnoresNonFinitePadding(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"a.mp4": 60, "b.mp4": 30}}

	for _, seconds := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), -5} {
		res := Compute(context.Background(), []string{"a.mp4", "b.mp4"}, lookup, Padding{Enabled: true, Seconds: seconds})
		assert.Equal(t, []string{"00:00 - a", "01:00 - b"}, lines(res), "padding %v", seconds)
	}
}

func TestComputeHugePaddingStaysNonNegative(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"a.mp4": 60, "b.mp4": 30, "c.mp4": 1}}

	res := Compute(context.Background(), []string{"a.mp4", "b.mp4", "c.mp4"}, lookup, Padding{Enabled: true, Seconds: 1e300})

	require.Len(t, res.Lines, 3)
	for _, l := range res.Lines {
		assert.NotContains(t, l.Timestamp(), "-")
	}
	assert.Equal(t, "2501999792983:36:32 - c", res.Lines[2].String())
}

func TestComputePartialFailure(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"a.mp4": 60, "c.mp4": 30}}

	res := Compute(context.Background(), []string{"a.mp4", "b.mp4", "c.mp4"}, lookup, Padding{})

	assert.Equal(t, []string{"00:00 - a", "01:00 - b", "01:00 - c"}, lines(res))
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.Equal(t, "b.mp4", res.Failures[0].Path)
	assert.True(t, errors.Is(res.Failures[0], ErrDurationUnavailable))
	assert.True(t, res.Partial())
}

func TestComputePaddingAppliedAfterFailure(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"a.mp4": 60, "c.mp4": 30}}

	res := Compute(context.Background(), []string{"a.mp4", "b.mp4", "c.mp4"}, lookup, Padding{Enabled: true, Seconds: 2})

	assert.Equal(t, []string{"00:00 - a", "01:02 - b", "01:04 - c"}, lines(res))
}

func TestComputeInvalidDurationIsFailure(t *testing.T) {
	lookup := LookupFunc(func(_ context.Context, path string) (float64, error) {
		if path == "bad.mp4" {
			return -3, nil
		}
		return 10, nil
	})

	res := Compute(context.Background(), []string{"bad.mp4", "good.mp4", "x.mp4"}, lookup, Padding{})

	assert.Equal(t, []string{"00:00 - bad", "00:00 - good", "00:10 - x"}, lines(res))
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0].Err, ErrDurationUnavailable)
}

func TestComputeSequentialOrderWithDuplicates(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"a.mp4": 1, "b.mp4": 2}}
	paths := []string{"b.mp4", "a.mp4", "b.mp4", "a.mp4"}

	res := Compute(context.Background(), paths, lookup, Padding{})

	assert.Equal(t, paths, lookup.calls)
	assert.Len(t, res.Lines, len(paths))
	assert.Equal(t, []string{"00:00 - b", "00:02 - a", "00:03 - b", "00:05 - a"}, lines(res))
}

func TestComputeLineCountAndMonotonicOffsets(t *testing.T) {
	durations := map[string]float64{}
	var paths []string
	for i := 0; i < 50; i++ {
		p := fmt.Sprintf("/videos/part%02d.mkv", i)
		durations[p] = float64(i*37%200) + 0.75
		paths = append(paths, p)
	}

	res := Compute(context.Background(), paths, &fakeLookup{durations: durations}, Padding{Enabled: true, Seconds: 1.5})

	require.Len(t, res.Lines, len(paths))
	for i := 1; i < len(res.Lines); i++ {
		assert.GreaterOrEqual(t, res.Lines[i].Offset, res.Lines[i-1].Offset)
	}
}

func TestComputeSwitchesToHours(t *testing.T) {
	lookup := &fakeLookup{durations: map[string]float64{"long.mp4": 3661, "next.mp4": 10, "edge.mp4": 3599.9}}

	res := Compute(context.Background(), []string{"long.mp4", "next.mp4"}, lookup, Padding{})
	assert.Equal(t, []string{"00:00 - long", "01:01:01 - next"}, lines(res))

	res = Compute(context.Background(), []string{"edge.mp4", "next.mp4"}, lookup, Padding{})
	assert.Equal(t, []string{"00:00 - edge", "59:59 - next"}, lines(res))
}

func TestCalculatorLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithConfig(logger.Config{Output: &buf})
	calc := NewCalculator(&fakeLookup{durations: map[string]float64{"a.mp4": 5}}, log)

	res := calc.Compute(context.Background(), []string{"a.mp4", "missing.mp4"}, Padding{})

	assert.Len(t, res.Lines, 2)
	assert.Len(t, res.Failures, 1)
	assert.True(t, strings.Contains(buf.String(), "missing.mp4"))
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestNewCalculatorNilLogger(t *testing.T) {
	calc := NewCalculator(&fakeLookup{}, nil)

	res := calc.Compute(context.Background(), []string{"a", "b"}, Padding{})

	assert.Equal(t, []string{"00:00 - a", "00:00 - b"}, lines(res))
	assert.Len(t, res.Failures, 2)
}
