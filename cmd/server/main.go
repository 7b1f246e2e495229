// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZSC714725/loopmate/internal/api"
	"github.com/ZSC714725/loopmate/internal/cache"
	"github.com/ZSC714725/loopmate/internal/config"
	"github.com/ZSC714725/loopmate/internal/ffprobe"
	"github.com/ZSC714725/loopmate/internal/job"
	"github.com/ZSC714725/loopmate/internal/logger"
	"github.com/ZSC714725/loopmate/internal/sysinfo"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffprobeBin := flag.String("ffprobe", "", "ffprobe binary path (overrides config)")
	cachePath := flag.String("cache", "", "SQLite duration cache path (overrides config)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Load .env: %v", err)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}
	cfg.ApplyEnv()

	// 命令行参数优先
	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *ffprobeBin != "" {
		cfg.FFprobe.Path = *ffprobeBin
	}
	if *cachePath != "" {
		cfg.Cache.Path = *cachePath
	}

	lg := logger.NewWithConfig(logger.Config{Prefix: "loopmate", Debug: cfg.Log.Debug})

	durations := cache.NewMemory()
	if cfg.Cache.Path != "" {
		var err error
		durations, err = cache.OpenSQLite(cfg.Cache.Path)
		if err != nil {
			log.Fatalf("Duration cache: %v", err)
		}
	}
	defer durations.Close()

	validator, err := ffprobe.NewValidator(cfg.FFprobe.Allow, cfg.FFprobe.Block)
	if err != nil {
		log.Fatalf("FFprobe validator: %v", err)
	}

	probe, err := ffprobe.New(ffprobe.Config{
		Binary:         cfg.FFprobe.Path,
		Timeout:        cfg.FFprobe.Timeout(),
		ValidatorInput: validator,
		Cache:          durations,
		Logger:         lg,
	})
	if err != nil {
		log.Fatalf("FFprobe init: %v", err)
	}
	lg.Info("using ffprobe %s", probe.Skills().FFprobe.Version)

	sys, err := sysinfo.Self()
	if err != nil {
		lg.Error("process sampler unavailable: %v", err)
		sys = sysinfo.NewNull()
	}

	store := job.NewStore(probe, lg, job.Config{MaxJobs: cfg.Jobs.Max})
	defer store.Close()

	handler := api.NewHandler(api.Options{
		Store:          store,
		FFprobe:        probe,
		System:         sys,
		Logger:         lg,
		DefaultPadding: cfg.Chapters.PaddingSeconds,
	})

	r := gin.Default()
	r.Use(cors.Default())
	handler.Register(r)

	srv := &http.Server{Addr: cfg.Server.Bind, Handler: r}

	go func() {
		log.Printf("LoopMate listening on %s", cfg.Server.Bind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("shutdown: %v", err)
	}
}
