// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package ffprobe

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/ZSC714725/loopmate/internal/cache"
	"github.com/ZSC714725/loopmate/internal/chapters"
	"github.com/ZSC714725/loopmate/internal/ffprobe/skills"
	"github.com/ZSC714725/loopmate/internal/logger"

	"golang.org/x/sync/singleflight"
)

// FFprobe resolves media durations with the ffprobe binary
type FFprobe interface {
	chapters.Lookup
	ValidateInput(path string) bool
	Skills() skills.Skills
	ReloadSkills() error
}

// Config for FFprobe
type Config struct {
	Binary         string
	Timeout        time.Duration
	ValidatorInput Validator
	Cache          cache.Cache
	Logger         logger.Logger
}

// DefaultTimeout bounds a single duration probe
const DefaultTimeout = 30 * time.Second

type ffprobe struct {
	binary      string
	timeout     time.Duration
	validatorIn Validator
	cache       cache.Cache
	logger      logger.Logger
	group       singleflight.Group
	run         runner
	skills      skills.Skills
	skillsLock  sync.RWMutex
	loadSkills  func(binary string) (skills.Skills, error)
}

// New creates FFprobe
func New(config Config) (FFprobe, error) {
	binary, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffprobe binary: %w", err)
	}

	f := newProbe(config, binary, execRunner, skills.New)

	s, err := f.loadSkills(f.binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffprobe: %w", err)
	}
	f.skills = s

	return f, nil
}

func newProbe(config Config, binary string, run runner, load func(string) (skills.Skills, error)) *ffprobe {
	f := &ffprobe{
		binary:      binary,
		timeout:     config.Timeout,
		validatorIn: config.ValidatorInput,
		cache:       config.Cache,
		logger:      config.Logger,
		run:         run,
		loadSkills:  load,
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.validatorIn == nil {
		f.validatorIn, _ = NewValidator(nil, nil)
	}
	if f.cache == nil {
		f.cache = cache.NewNop()
	}
	if f.logger == nil {
		f.logger = logger.Nop()
	}
	return f
}

// Duration implements chapters.Lookup. Every error wraps
// chapters.ErrDurationUnavailable.
func (f *ffprobe) Duration(ctx context.Context, path string) (float64, error) {
	if !f.ValidateInput(path) {
		return 0, fmt.Errorf("%w: %w: %s", chapters.ErrDurationUnavailable, ErrInvalidPath, path)
	}

	key, statErr := cache.KeyFor(path)
	if statErr == nil {
		if d, ok := f.cache.Get(key); ok {
			f.logger.Debug("duration cache hit for %s: %.3fs", path, d)
			return d, nil
		}
	}

	// the shared probe outlives any single caller; only the timeout bounds it
	probeCtx := context.WithoutCancel(ctx)
	ch := f.group.DoChan(path, func() (interface{}, error) {
		return f.probe(probeCtx, path)
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %s: %w", chapters.ErrDurationUnavailable, path, ctx.Err())
	}
	if r.Err != nil {
		return 0, fmt.Errorf("%w: %s: %w", chapters.ErrDurationUnavailable, path, r.Err)
	}
	d := r.Val.(float64)
	if r.Shared {
		f.logger.Debug("shared duration probe for %s", path)
	}

	if statErr == nil {
		if err := f.cache.Put(key, d); err != nil {
			f.logger.Error("cache duration for %s: %v", path, err)
		}
	}
	return d, nil
}

func (f *ffprobe) probe(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	out, err := f.run(ctx, f.binary, durationArgs(path)...)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe: %w", ctx.Err())
		}
		return 0, err
	}

	d, err := parseDuration(out)
	if err != nil {
		return 0, err
	}
	f.logger.Debug("probed %s: %.3fs in %s", path, d, time.Since(start))
	return d, nil
}

func (f *ffprobe) ValidateInput(path string) bool {
	return f.validatorIn.IsValid(path)
}

func (f *ffprobe) Skills() skills.Skills {
	f.skillsLock.RLock()
	defer f.skillsLock.RUnlock()
	return f.skills
}

func (f *ffprobe) ReloadSkills() error {
	s, err := f.loadSkills(f.binary)
	if err != nil {
		return fmt.Errorf("reload skills: %w", err)
	}
	f.skillsLock.Lock()
	f.skills = s
	f.skillsLock.Unlock()
	return nil
}
