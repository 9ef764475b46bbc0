// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

// Stage identifies the pipeline step a progress notification refers to.
// Stages advance monotonically for a single invocation.
type Stage string

const (
	StageSamplingFrames     Stage = "sampling-frames"
	StageSegmentingScenes   Stage = "segmenting-scenes"
	StageTrackingCharacters Stage = "tracking-characters"
	StageDetectingMoments   Stage = "detecting-moments"
	StageDone               Stage = "done"
	StageError              Stage = "error"
)

// Progress is a point-in-time snapshot of pipeline advancement. It is an
// output-only side channel: consumers cannot influence the pipeline through
// it.
type Progress struct {
	Stage   Stage   `json:"stage"`
	Percent float64 `json:"percent"` // Intra-stage completion, 0-100.
	Message string  `json:"message"`
}

// ProgressFunc receives progress notifications. Implementations must be fast
// and must not block; the pipeline calls them synchronously between units of
// work.
type ProgressFunc func(Progress)
