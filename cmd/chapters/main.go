// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"

	"github.com/ZSC714725/loopmate/internal/cache"
	"github.com/ZSC714725/loopmate/internal/chapters"
	"github.com/ZSC714725/loopmate/internal/config"
	"github.com/ZSC714725/loopmate/internal/ffprobe"
	"github.com/ZSC714725/loopmate/internal/logger"

	"github.com/atotto/clipboard"
)

const VERSION = "1.0.0"

// newLookup builds the duration lookup; replaced in tests
var newLookup = func(config ffprobe.Config) (chapters.Lookup, error) {
	return ffprobe.New(config)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("chapters", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath string
		ffprobeBin string
		pad        float64
		copyOut    bool
		verbose    bool
		version    bool
	)
	fs.StringVar(&configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&ffprobeBin, "ffprobe", "", "ffprobe binary path (overrides config)")
	fs.Float64Var(&pad, "pad", 0, "Seconds of padding between clips (default from config, 0 disables)")
	fs.BoolVar(&copyOut, "copy", false, "Copy the chapter list to the clipboard")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	fs.BoolVar(&version, "version", false, "Show version info")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	if version {
		fmt.Fprintln(stdout, bullet("└")+TextStyle.Render(VERSION))
		return 0
	}

	padSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "pad" {
			padSet = true
		}
	})
	if padSet && !validPadding(pad) {
		fail(stderr, "Error: -pad must be a non-negative number of seconds, got %v", pad)
		return 1
	}

	paths := fs.Args()
	if len(paths) == 0 {
		usage(stderr, fs)
		return 1
	}
	if len(paths) < 2 {
		fmt.Fprintln(stderr, bullet("└")+DimTextStyle.Render("Chapters need at least two clips."))
		return 0
	}

	if err := config.LoadDotEnv(); err != nil {
		fail(stderr, "Error loading .env: %v", err)
		return 1
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			fail(stderr, "Error loading config: %v", err)
			return 1
		}
	}
	cfg.ApplyEnv()
	if ffprobeBin != "" {
		cfg.FFprobe.Path = ffprobeBin
	}

	padding := resolvePadding(cfg.Chapters.PaddingSeconds, pad, padSet)

	// failures are rendered by report unless -v asks for the log
	log := logger.Nop()
	if verbose {
		log = logger.NewWithConfig(logger.Config{Prefix: "chapters", Output: stderr, Debug: true})
	}

	durations := cache.NewMemory()
	if cfg.Cache.Path != "" {
		var err error
		if durations, err = cache.OpenSQLite(cfg.Cache.Path); err != nil {
			fail(stderr, "Error opening cache: %v", err)
			return 1
		}
	}
	defer durations.Close()

	validator, err := ffprobe.NewValidator(cfg.FFprobe.Allow, cfg.FFprobe.Block)
	if err != nil {
		fail(stderr, "Error: %v", err)
		return 1
	}

	probe, err := newLookup(ffprobe.Config{
		Binary:         cfg.FFprobe.Path,
		Timeout:        cfg.FFprobe.Timeout(),
		ValidatorInput: validator,
		Cache:          durations,
		Logger:         log,
	})
	if err != nil {
		fail(stderr, "Error: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res := chapters.NewCalculator(probe, log).Compute(ctx, paths, padding)

	fmt.Fprintln(stdout, res.String())
	report(stderr, res)

	if copyOut {
		if err := clipboard.WriteAll(res.String()); err != nil {
			fail(stderr, "Error copying to clipboard: %v", err)
		} else {
			fmt.Fprintln(stderr, bullet("└")+SuccessStyle.Render("Copied to clipboard."))
		}
	}

	return 0
}

// resolvePadding picks the effective gap; the flag wins when set
func resolvePadding(configured, flagValue float64, flagSet bool) chapters.Padding {
	seconds := configured
	if flagSet {
		seconds = flagValue
	}
	return chapters.Padding{Enabled: seconds > 0, Seconds: seconds}
}

func validPadding(seconds float64) bool {
	return seconds >= 0 && !math.IsInf(seconds, 0) && !math.IsNaN(seconds)
}

func report(w io.Writer, res chapters.Result) {
	for i, f := range res.Failures {
		b := "├"
		if i == len(res.Failures)-1 {
			b = "└"
		}
		fmt.Fprintln(w, bullet(b)+ErrorStyle.Render(fmt.Sprintf("%s: counted as 0s (%v)", f.Path, f.Err)))
	}
}

func fail(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, bullet("└")+ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, bullet("┌")+TitleStyle.Render("chapters"))
	fmt.Fprintln(w, bullet("├")+TextStyle.Render("Usage: chapters [options] <clip> <clip>..."))
	fmt.Fprintln(w, bullet("│"))
	fmt.Fprintln(w, bullet("├")+TextStyle.Render("Options:"))
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Fprintln(w, bullet("├────")+TextStyle.Render("-"+f.Name)+DimTextStyle.Render("  "+f.Usage))
	})
	fmt.Fprintln(w, bullet("│"))
	fmt.Fprintln(w, bullet("└")+TextStyle.Render("Requires ffprobe on PATH or -ffprobe."))
}
