// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package sysinfo

import (
	"os"
	"sync"
	"time"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
)

// Usage is a resource sample of a process
type Usage struct {
	CPU    float64 `json:"cpu_usage"`
	Memory uint64  `json:"memory_bytes"`
}

// Sampler 使用 gopsutil 采集进程 CPU 和内存
type Sampler interface {
	Current() Usage
	Uptime() time.Duration
}

type sampler struct {
	mu      sync.Mutex
	proc    *gopsutilprocess.Process
	started time.Time
}

// New creates a sampler for the process with the given pid
func New(pid int) (Sampler, error) {
	proc, err := gopsutilprocess.NewProcess(int32(pid))
	if err != nil {
		return nil, err
	}
	return &sampler{proc: proc, started: time.Now()}, nil
}

// Self samples the current process
func Self() (Sampler, error) {
	return New(os.Getpid())
}

func (s *sampler) Current() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := Usage{}
	if cpuPct, err := s.proc.CPUPercent(); err == nil {
		u.CPU = cpuPct
	}
	if memInfo, err := s.proc.MemoryInfo(); err == nil && memInfo != nil {
		u.Memory = memInfo.RSS
	}
	return u
}

func (s *sampler) Uptime() time.Duration {
	return time.Since(s.started)
}

type nullSampler struct {
	started time.Time
}

// NewNull returns a sampler that reports zero usage
func NewNull() Sampler {
	return &nullSampler{started: time.Now()}
}

func (s *nullSampler) Current() Usage { return Usage{} }
func (s *nullSampler) Uptime() time.Duration { return time.Since(s.started) }
