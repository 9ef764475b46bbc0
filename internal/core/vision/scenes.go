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

package vision

import (
	"math"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// SceneDetector partitions an ordered frame sequence into contiguous,
// non-overlapping scenes that together cover every frame exactly once. It
// also returns the per-frame difference series (diffs[i] is the MAD between
// frame i-1 and frame i; diffs[0] is always zero) so downstream stages can
// reuse it without recomputing.
type SceneDetector interface {
	DetectScenes(frames []*model.SampledFrame) ([]*model.Scene, []float64)
}

// MotionSceneConfig tunes the pixel-difference scene detector. The zero
// value is not useful; start from DefaultMotionSceneConfig.
type MotionSceneConfig struct {
	// CutThreshold is the inter-frame MAD at or above which a cut is
	// declared. The comparison is inclusive: a difference exactly equal to
	// the threshold cuts.
	CutThreshold float64
	// MinSceneDuration is the minimum elapsed time in seconds between cuts.
	// It guards against flicker-induced micro-scenes and always wins over a
	// raw threshold crossing.
	MinSceneDuration float64
	// IntensityCeiling is the empirical MAD value that maps to a motion
	// intensity of 100.
	IntensityCeiling float64
}

// DefaultMotionSceneConfig returns the calibrated defaults.
func DefaultMotionSceneConfig() MotionSceneConfig {
	return MotionSceneConfig{
		CutThreshold:     30.0,
		MinSceneDuration: 2.0,
		IntensityCeiling: 50.0,
	}
}

// MotionSceneDetector is the production SceneDetector: it declares cuts
// wherever the inter-frame MAD crosses a threshold, subject to a minimum
// scene duration.
type MotionSceneDetector struct {
	cfg MotionSceneConfig
}

// NewMotionSceneDetector constructs a MotionSceneDetector with the given
// configuration.
func NewMotionSceneDetector(cfg MotionSceneConfig) *MotionSceneDetector {
	return &MotionSceneDetector{cfg: cfg}
}

// DetectScenes computes the inter-frame difference series and partitions the
// frames at detected cut points. The first frame is always a cut. Fewer than
// two frames is degenerate and yields zero scenes; it is never an error.
func (d *MotionSceneDetector) DetectScenes(frames []*model.SampledFrame) ([]*model.Scene, []float64) {
	diffs := make([]float64, len(frames))
	scenes := make([]*model.Scene, 0)
	if len(frames) < 2 {
		return scenes, diffs
	}

	// Accumulate cut indices. Index 0 opens scene 1 unconditionally.
	boundaries := []int{0}
	lastCutTime := frames[0].Timestamp
	for i := 1; i < len(frames); i++ {
		diffs[i] = FrameDiff(frames[i-1].Pixels, frames[i].Pixels)
		if diffs[i] >= d.cfg.CutThreshold && frames[i].Timestamp-lastCutTime >= d.cfg.MinSceneDuration {
			boundaries = append(boundaries, i)
			lastCutTime = frames[i].Timestamp
		}
	}

	for k, start := range boundaries {
		end := len(frames) - 1
		endTime := frames[end].Timestamp
		if k+1 < len(boundaries) {
			end = boundaries[k+1] - 1
			// Half-open ranges: a scene ends where the next begins, so the
			// union of scene time ranges covers the sequence with no gaps.
			endTime = frames[boundaries[k+1]].Timestamp
		}
		scenes = append(scenes, &model.Scene{
			Id:              model.SceneId(k + 1),
			StartFrame:      start,
			EndFrame:        end,
			StartTime:       frames[start].Timestamp,
			EndTime:         endTime,
			Thumbnail:       frames[(start+end)/2].Thumbnail,
			MotionIntensity: d.intensity(diffs, start, end),
		})
	}
	return scenes, diffs
}

// intensity averages the difference values strictly inside the scene. The
// opening cut diff is excluded so a hard cut does not inflate the score of
// an otherwise static scene.
func (d *MotionSceneDetector) intensity(diffs []float64, start, end int) float64 {
	if end <= start {
		return 0
	}
	var sum float64
	for i := start + 1; i <= end; i++ {
		sum += diffs[i]
	}
	mean := sum / float64(end-start)
	return math.Min(100, math.Max(0, mean/d.cfg.IntensityCeiling*100))
}
