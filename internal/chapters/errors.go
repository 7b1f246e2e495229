// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package chapters

import "errors"

// ErrDurationUnavailable is wrapped by lookups that can't resolve a duration
var ErrDurationUnavailable = errors.New("duration unavailable")
