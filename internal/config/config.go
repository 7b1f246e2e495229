// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	FFprobe  FFprobeConfig  `yaml:"ffprobe"`
	Cache    CacheConfig    `yaml:"cache"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Chapters ChaptersConfig `yaml:"chapters"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFprobeConfig ffprobe 配置
type FFprobeConfig struct {
	Path           string   `yaml:"path"`
	TimeoutSeconds uint64   `yaml:"timeout_seconds"`
	Allow          []string `yaml:"allow"`
	Block          []string `yaml:"block"`
}

// Timeout returns the per-probe timeout
func (c FFprobeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheConfig 时长缓存配置，Path 为空时使用内存缓存
type CacheConfig struct {
	Path string `yaml:"path"`
}

// JobsConfig 任务配置
type JobsConfig struct {
	Max int `yaml:"max"`
}

// ChaptersConfig 章节默认值
type ChaptersConfig struct {
	PaddingSeconds float64 `yaml:"padding_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

const (
	defaultBind    = ":8080"
	defaultFFprobe = "ffprobe"
	defaultTimeout = 30
	defaultMaxJobs = 100
)

// Environment overrides
const (
	EnvBind    = "LOOPMATE_BIND"
	EnvFFprobe = "LOOPMATE_FFPROBE"
	EnvCache   = "LOOPMATE_CACHE"
	EnvDebug   = "LOOPMATE_DEBUG"
)

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Bind: defaultBind},
		FFprobe: FFprobeConfig{Path: defaultFFprobe, TimeoutSeconds: defaultTimeout},
		Jobs:    JobsConfig{Max: defaultMaxJobs},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.fill()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// 填充空值
func (c *Config) fill() {
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if c.FFprobe.Path == "" {
		c.FFprobe.Path = defaultFFprobe
	}
	if c.FFprobe.TimeoutSeconds == 0 {
		c.FFprobe.TimeoutSeconds = defaultTimeout
	}
	if c.Jobs.Max <= 0 {
		c.Jobs.Max = defaultMaxJobs
	}
}

// Validate checks values that can't be backfilled
func (c *Config) Validate() error {
	p := c.Chapters.PaddingSeconds
	if p < 0 {
		return errors.New("chapters.padding_seconds must not be negative")
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return errors.New("chapters.padding_seconds must be a finite number")
	}
	return nil
}

// LoadDotEnv loads variables from a .env file if present. Variables already
// set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides config values from LOOPMATE_* variables
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBind); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv(EnvFFprobe); v != "" {
		c.FFprobe.Path = v
	}
	if v := os.Getenv(EnvCache); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Debug = b
		}
	}
}
