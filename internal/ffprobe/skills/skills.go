// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package skills

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Format represents a container format ffprobe can read
type Format struct {
	Id   string
	Name string
}

// Library represents a linked av library
type Library struct {
	Name     string
	Compiled string
	Linked   string
}

// Info is the version banner of the binary
type Info struct {
	Version       string
	Compiler      string
	Configuration string
	Libraries     []Library
}

// Skills are the detected capabilities of ffprobe
type Skills struct {
	FFprobe   Info
	Demuxers  []Format
	Protocols []string
}

// CanDemux reports whether a demuxer with the given id is available
func (s Skills) CanDemux(id string) bool {
	for _, f := range s.Demuxers {
		if f.Id == id {
			return true
		}
	}
	return false
}

const probeTimeout = 10 * time.Second

// New returns all skills that ffprobe provides
func New(binary string) (Skills, error) {
	s := Skills{}

	info, err := getVersion(binary)
	if err != nil {
		return Skills{}, fmt.Errorf("can't parse ffprobe version: %w", err)
	}
	if info.Version == "" {
		return Skills{}, fmt.Errorf("can't parse ffprobe version")
	}
	s.FFprobe = info

	s.Demuxers = parseDemuxers(run(binary, "-formats"))
	s.Protocols = parseInputProtocols(run(binary, "-protocols"))

	return s, nil
}

func run(binary string, args ...string) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, append([]string{"-hide_banner"}, args...)...)
	cmd.Env = []string{}
	stdout, _ := cmd.Output()
	return stdout
}

func getVersion(binary string) (Info, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-version")
	cmd.Env = []string{}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Info{}, err
	}
	return parseVersion(out), nil
}

var (
	reVersion       = regexp.MustCompile(`^ffprobe version n?([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reCompiler      = regexp.MustCompile(`(?m)^\s*built with (.*)$`)
	reConfiguration = regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reLibrary       = regexp.MustCompile(`(?m)^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)
	reFormat        = regexp.MustCompile(`^\s([D ])([E ])[d ]? ([0-9A-Za-z_,]+)\s+(.*?)$`)
)

func parseVersion(data []byte) Info {
	f := Info{}

	if m := reVersion.FindSubmatch(data); m != nil {
		f.Version = string(m[1])
		if len(m[2]) == 0 {
			f.Version += ".0"
		}
	}
	if m := reCompiler.FindSubmatch(data); m != nil {
		f.Compiler = string(m[1])
	}
	if m := reConfiguration.FindSubmatch(data); m != nil {
		f.Configuration = string(m[1])
	}
	for _, m := range reLibrary.FindAllSubmatch(data, -1) {
		f.Libraries = append(f.Libraries, Library{
			Name:     string(m[1]),
			Compiled: string(m[2]),
			Linked:   string(m[3]),
		})
	}
	return f
}

func parseDemuxers(data []byte) []Format {
	var demuxers []Format
	started := false
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		// entries follow the dashed separator line
		if t := strings.TrimSpace(line); t != "" && strings.Trim(t, "-") == "" {
			started = true
			continue
		}
		if !started {
			continue
		}
		m := reFormat.FindStringSubmatch(line)
		if m == nil || m[1] != "D" {
			continue
		}
		demuxers = append(demuxers, Format{Id: strings.Split(m[3], ",")[0], Name: m[4]})
	}
	return demuxers
}

func parseInputProtocols(data []byte) []string {
	var protocols []string
	input := false
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "Input:":
			input = true
			continue
		case "Output:":
			input = false
			continue
		}
		if !input || line == "" {
			continue
		}
		protocols = append(protocols, line)
	}
	return protocols
}
