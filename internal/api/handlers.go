// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package api

import (
	"errors"
	"net/http"

	"github.com/ZSC714725/loopmate/internal/chapters"
	"github.com/ZSC714725/loopmate/internal/ffprobe"
	"github.com/ZSC714725/loopmate/internal/ffprobe/skills"
	"github.com/ZSC714725/loopmate/internal/job"
	"github.com/ZSC714725/loopmate/internal/logger"
	"github.com/ZSC714725/loopmate/internal/sysinfo"
	"github.com/gin-gonic/gin"
)

// Handler holds dependencies
type Handler struct {
	store   job.Store
	ffprobe ffprobe.FFprobe
	calc    *chapters.Calculator
	sys     sysinfo.Sampler
	padding float64
}

// Options for NewHandler
type Options struct {
	Store   job.Store
	FFprobe ffprobe.FFprobe
	System  sysinfo.Sampler
	Logger  logger.Logger
	// DefaultPadding applies when a request carries no padding object
	DefaultPadding float64
}

// NewHandler creates API handler
func NewHandler(opts Options) *Handler {
	sys := opts.System
	if sys == nil {
		sys = sysinfo.NewNull()
	}
	return &Handler{
		store:   opts.Store,
		ffprobe: opts.FFprobe,
		calc:    chapters.NewCalculator(opts.FFprobe, opts.Logger),
		sys:     sys,
		padding: opts.DefaultPadding,
	}
}

// Register mounts the API routes on r
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/chapters", h.Chapters)

		v1.GET("/jobs", h.ListJobs)
		v1.POST("/jobs", h.AddJob)
		v1.GET("/jobs/:id", h.GetJob)
		v1.DELETE("/jobs/:id", h.DeleteJob)

		v1.GET("/probe", h.Probe)

		v1.GET("/skills", h.Skills)
		v1.GET("/skills/demuxers/:id", h.Demuxer)
		v1.POST("/skills/reload", h.ReloadSkills)

		v1.GET("/status", h.Status)
	}
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// Chapters POST /api/v1/chapters
func (h *Handler) Chapters(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	res := h.calc.Compute(c.Request.Context(), req.Paths, req.Padding)
	c.JSON(http.StatusOK, resultToAPI(res))
}

// AddJob POST /api/v1/jobs
func (h *Handler) AddJob(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	j, err := h.store.Add(req)
	if err != nil {
		if errors.Is(err, job.ErrTooManyJobs) {
			errResp(c, http.StatusTooManyRequests, "Too many jobs", err.Error())
			return
		}
		errResp(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	c.JSON(http.StatusOK, jobToAPI(j.Snapshot()))
}

// ListJobs GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	reference := c.DefaultQuery("reference", "")

	jobs := h.store.List(reference)
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobToAPI(j.Snapshot()))
	}

	c.JSON(http.StatusOK, out)
}

// GetJob GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	id := c.Param("id")

	j, err := h.store.Get(id)
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, jobToAPI(j.Snapshot()))
}

// DeleteJob DELETE /api/v1/jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.Delete(id); err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// Probe GET /api/v1/probe?path=
func (h *Handler) Probe(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		errResp(c, http.StatusBadRequest, "Missing path", "")
		return
	}

	d, err := h.ffprobe.Duration(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, ffprobe.ErrInvalidPath) {
			errResp(c, http.StatusForbidden, "Path not allowed", err.Error())
			return
		}
		errResp(c, http.StatusUnprocessableEntity, "Duration unavailable", err.Error())
		return
	}

	c.JSON(http.StatusOK, ProbeResponse{Path: path, Duration: d})
}

// Skills GET /api/v1/skills
func (h *Handler) Skills(c *gin.Context) {
	c.JSON(http.StatusOK, skillsToAPI(h.ffprobe.Skills()))
}

// Demuxer GET /api/v1/skills/demuxers/:id
func (h *Handler) Demuxer(c *gin.Context) {
	id := c.Param("id")
	c.JSON(http.StatusOK, DemuxerResponse{ID: id, Supported: h.ffprobe.Skills().CanDemux(id)})
}

// ReloadSkills POST /api/v1/skills/reload
func (h *Handler) ReloadSkills(c *gin.Context) {
	if err := h.ffprobe.ReloadSkills(); err != nil {
		errResp(c, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, skillsToAPI(h.ffprobe.Skills()))
}

// Status GET /api/v1/status
func (h *Handler) Status(c *gin.Context) {
	usage := h.sys.Current()

	jobs := map[string]int{}
	for state, n := range h.store.Counts() {
		jobs[string(state)] = n
	}

	c.JSON(http.StatusOK, StatusResponse{
		Uptime: int64(h.sys.Uptime().Seconds()),
		Jobs:   jobs,
		Memory: usage.Memory,
		CPU:    usage.CPU,
	})
}

func (h *Handler) bindRequest(c *gin.Context) (*job.Request, bool) {
	var req ChaptersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return nil, false
	}

	r := h.requestToJob(&req)
	if err := r.Validate(); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid request", err.Error())
		return nil, false
	}
	return r, true
}

func (h *Handler) requestToJob(req *ChaptersRequest) *job.Request {
	r := &job.Request{
		Reference: req.Reference,
		Paths:     req.Paths,
	}
	if req.Padding != nil {
		r.Padding = chapters.Padding{Enabled: req.Padding.Enabled, Seconds: req.Padding.Seconds}
	} else if h.padding > 0 {
		r.Padding = chapters.Padding{Enabled: true, Seconds: h.padding}
	}
	return r
}

func resultToAPI(res chapters.Result) *ChaptersResponse {
	out := &ChaptersResponse{
		Text:     res.String(),
		Lines:    make([]ChapterLine, len(res.Lines)),
		Failures: make([]LookupFailure, len(res.Failures)),
	}
	for i, l := range res.Lines {
		out.Lines[i] = ChapterLine{Offset: l.Offset, Timestamp: l.Timestamp(), Label: l.Label}
	}
	for i, f := range res.Failures {
		out.Failures[i] = LookupFailure{Index: f.Index, Path: f.Path, Error: f.Err.Error()}
	}
	return out
}

func jobToAPI(s job.Snapshot) Job {
	j := Job{
		ID:        s.ID,
		Reference: s.Reference,
		State:     string(s.State),
		Paths:     s.Request.Paths,
		Padding:   PaddingRequest{Enabled: s.Request.Padding.Enabled, Seconds: s.Request.Padding.Seconds},
		Progress:  JobProgress{Resolved: s.Progress.Resolved, Total: s.Progress.Total},
		CreatedAt: s.CreatedAt.Unix(),
		UpdatedAt: s.UpdatedAt.Unix(),
	}
	if s.State == job.StateFinished {
		j.Result = resultToAPI(s.Result)
	}
	return j
}

func skillsToAPI(s skills.Skills) SkillsResponse {
	resp := SkillsResponse{}

	resp.FFprobe.Version = s.FFprobe.Version
	resp.FFprobe.Compiler = s.FFprobe.Compiler
	resp.FFprobe.Configuration = s.FFprobe.Configuration
	resp.FFprobe.Libraries = make([]Library, len(s.FFprobe.Libraries))
	for i, lib := range s.FFprobe.Libraries {
		resp.FFprobe.Libraries[i] = Library{Name: lib.Name, Compiled: lib.Compiled, Linked: lib.Linked}
	}

	resp.Demuxers = make([]Format, len(s.Demuxers))
	for i, f := range s.Demuxers {
		resp.Demuxers[i] = Format{ID: f.Id, Name: f.Name}
	}

	resp.Protocols = append([]string{}, s.Protocols...)
	return resp
}
