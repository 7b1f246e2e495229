// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package job

import "errors"

var (
	ErrNotFound       = errors.New("job not found")
	ErrTooManyJobs    = errors.New("too many running jobs")
	ErrInvalidPadding = errors.New("invalid padding: seconds must be between 0 and 86400")
	ErrEmptyPath      = errors.New("invalid request: empty media path")
	ErrClosed         = errors.New("job store closed")
)
