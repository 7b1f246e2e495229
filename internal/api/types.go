// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package api

// PaddingRequest is the inter-clip gap
type PaddingRequest struct {
	Enabled bool    `json:"enabled"`
	Seconds float64 `json:"seconds"`
}

// ChaptersRequest for chapter computation and job creation
type ChaptersRequest struct {
	Reference string          `json:"reference"`
	Paths     []string        `json:"paths" binding:"required"`
	Padding   *PaddingRequest `json:"padding"`
}

// ChapterLine is one rendered chapter
type ChapterLine struct {
	Offset    float64 `json:"offset_seconds"`
	Timestamp string  `json:"timestamp"`
	Label     string  `json:"label"`
}

// LookupFailure is a non-fatal duration lookup error
type LookupFailure struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ChaptersResponse is the computed chapter list
type ChaptersResponse struct {
	Text     string          `json:"text"`
	Lines    []ChapterLine   `json:"lines"`
	Failures []LookupFailure `json:"failures"`
}

// JobProgress for API
type JobProgress struct {
	Resolved int `json:"resolved"`
	Total    int `json:"total"`
}

// Job represents a chapter job in API responses
type Job struct {
	ID        string            `json:"id"`
	Reference string            `json:"reference"`
	State     string            `json:"state"`
	Paths     []string          `json:"paths"`
	Padding   PaddingRequest    `json:"padding"`
	Progress  JobProgress       `json:"progress"`
	Result    *ChaptersResponse `json:"result,omitempty"`
	CreatedAt int64             `json:"created_at"`
	UpdatedAt int64             `json:"updated_at"`
}

// ProbeResponse for a single duration lookup
type ProbeResponse struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration_seconds"`
}

// SkillsResponse for API
type SkillsResponse struct {
	FFprobe struct {
		Version       string    `json:"version"`
		Compiler      string    `json:"compiler"`
		Configuration string    `json:"configuration"`
		Libraries     []Library `json:"libraries"`
	} `json:"ffprobe"`
	Demuxers  []Format `json:"demuxers"`
	Protocols []string `json:"protocols"`
}

// Library is a linked av library
type Library struct {
	Name     string `json:"name"`
	Compiled string `json:"compiled"`
	Linked   string `json:"linked"`
}

// Format is a demuxer
type Format struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DemuxerResponse for GET /skills/demuxers/:id
type DemuxerResponse struct {
	ID        string `json:"id"`
	Supported bool   `json:"supported"`
}

// StatusResponse for GET /status
type StatusResponse struct {
	Uptime int64          `json:"uptime_seconds"`
	Jobs   map[string]int `json:"jobs"`
	Memory uint64         `json:"memory_bytes"`
	CPU    float64        `json:"cpu_usage"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
