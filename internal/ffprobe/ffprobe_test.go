// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package ffprobe

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZSC714725/loopmate/internal/cache"
	"github.com/ZSC714725/loopmate/internal/chapters"
	"github.com/ZSC714725/loopmate/internal/ffprobe/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeRunner(output string, err error, calls *int32) runner {
	return func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		atomic.AddInt32(calls, 1)
		if err != nil {
			return nil, err
		}
		return []byte(output), nil
	}
}

func noSkills(string) (skills.Skills, error) { return skills.Skills{}, nil }

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0644))
	return path
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		expected    float64
		expectError bool
	}{
		{"Valid", `{"format":{"duration":"30.500000"}}`, 30.5, false},
		{"Zero", `{"format":{"duration":"0.000000"}}`, 0, false},
		{"Missing", `{"format":{}}`, 0, true},
		{"Not available", `{"format":{"duration":"N/A"}}`, 0, true},
		{"Garbage", `{"format":{"duration":"abc"}}`, 0, true},
		{"Negative", `{"format":{"duration":"-1"}}`, 0, true},
		{"Not JSON", `oops`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := parseDuration([]byte(tt.output))
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestDurationArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-v", "error", "-show_entries", "format=duration", "-of", "json", "/a b.mp4"},
		durationArgs("/a b.mp4"))
}

func TestDurationCachesResult(t *testing.T) {
	var calls int32
	f := newProbe(Config{Cache: cache.NewMemory()}, "ffprobe", fakeRunner(`{"format":{"duration":"12.25"}}`, nil, &calls), noSkills)
	path := touch(t, "clip.mp4")

	for i := 0; i < 3; i++ {
		d, err := f.Duration(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, 12.25, d)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDurationMissingFileSkipsCache(t *testing.T) {
	var calls int32
	f := newProbe(Config{Cache: cache.NewMemory()}, "ffprobe", fakeRunner("", errors.New("No such file"), &calls), noSkills)

	_, err := f.Duration(context.Background(), "/nonexistent/file.mp4")

	require.Error(t, err)
	assert.ErrorIs(t, err, chapters.ErrDurationUnavailable)
	assert.Contains(t, err.Error(), "No such file")
	assert.Equal(t, int32(1), calls)
}

func TestDurationRejectsBlockedPath(t *testing.T) {
	var calls int32
	v, err := NewValidator(nil, []string{`^/etc/`})
	require.NoError(t, err)
	f := newProbe(Config{ValidatorInput: v}, "ffprobe", fakeRunner(`{"format":{"duration":"1"}}`, nil, &calls), noSkills)

	_, err = f.Duration(context.Background(), "/etc/passwd")

	assert.ErrorIs(t, err, chapters.ErrDurationUnavailable)
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Zero(t, calls)

	_, err = f.Duration(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestDurationSharesConcurrentProbes(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	run := func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte(`{"format":{"duration":"5"}}`), nil
	}
	f := newProbe(Config{}, "ffprobe", run, noSkills)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := f.Duration(context.Background(), "/videos/same.mp4")
			assert.NoError(t, err)
			assert.Equal(t, 5.0, d)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(4))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestDurationCancelledCallerDoesNotFailSharedProbe(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	run := func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-release:
			return []byte(`{"format":{"duration":"7.5"}}`), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := newProbe(Config{}, "ffprobe", run, noSkills)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := f.Duration(ctxA, "/videos/same.mp4")
		errA <- err
	}()
	<-started

	type result struct {
		d   float64
		err error
	}
	resB := make(chan result, 1)
	go func() {
		d, err := f.Duration(context.Background(), "/videos/same.mp4")
		resB <- result{d, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, chapters.ErrDurationUnavailable)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, 7.5, b.d)
}

func TestDurationTimeout(t *testing.T) {
	run := func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, errors.New("signal: killed")
	}
	f := newProbe(Config{Timeout: 10 * time.Millisecond}, "ffprobe", run, noSkills)

	_, err := f.Duration(context.Background(), "/videos/slow.mp4")

	assert.ErrorIs(t, err, chapters.ErrDurationUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReloadSkills(t *testing.T) {
	n := 0
	load := func(string) (skills.Skills, error) {
		n++
		if n > 1 {
			return skills.Skills{}, errors.New("gone")
		}
		return skills.Skills{FFprobe: skills.Info{Version: "6.1.0"}}, nil
	}
	f := newProbe(Config{}, "ffprobe", execRunner, load)

	require.NoError(t, f.ReloadSkills())
	assert.Equal(t, "6.1.0", f.Skills().FFprobe.Version)

	assert.Error(t, f.ReloadSkills())
	assert.Equal(t, "6.1.0", f.Skills().FFprobe.Version)
}

func TestNewInvalidBinary(t *testing.T) {
	_, err := New(Config{Binary: "/nonexistent/ffprobe"})
	assert.Error(t, err)
}

func TestNewWithRealBinary(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	f, err := New(Config{Binary: "ffprobe"})
	require.NoError(t, err)
	assert.NotEmpty(t, f.Skills().FFprobe.Version)

	// a plain text file has no media duration
	_, err = f.Duration(context.Background(), touch(t, "not-media.txt"))
	assert.ErrorIs(t, err, chapters.ErrDurationUnavailable)
}
