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
	"fmt"
	"math"
	"sort"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// MomentDetector emits a ranked, capped list of narratively significant
// timestamps derived from frames, scenes, and tracked characters.
type MomentDetector interface {
	Detect(frames []*model.SampledFrame, scenes []*model.Scene, diffs []float64, characters []*model.TrackedCharacter) []*model.KeyMoment
}

// MomentConfig tunes the heuristic moment detector.
type MomentConfig struct {
	// MinDramaThreshold is the peak intra-scene MAD a climax must exceed.
	MinDramaThreshold float64
	// AbruptChangeThreshold is the MAD a transformation must exceed. It is
	// deliberately higher than the scene cut threshold.
	AbruptChangeThreshold float64
	// AbruptStartOffset is how far into a scene, in seconds, a frame must be
	// before it can qualify as a transformation.
	AbruptStartOffset float64
	// MaxMoments caps the emitted list to bound downstream rendering cost.
	MaxMoments int
}

// DefaultMomentConfig returns the calibrated defaults.
func DefaultMomentConfig() MomentConfig {
	return MomentConfig{
		MinDramaThreshold:     25.0,
		AbruptChangeThreshold: 50.0,
		AbruptStartOffset:     1.5,
		MaxMoments:            30,
	}
}

// HeuristicMomentDetector is the production MomentDetector. Per scene it
// considers five moment types (entrance, climax, focus, transformation,
// exit), then ranks everything by importance descending with ascending
// timestamp as the tie-break and truncates to the cap.
type HeuristicMomentDetector struct {
	cfg MomentConfig
}

// NewHeuristicMomentDetector constructs a HeuristicMomentDetector with the
// given configuration.
func NewHeuristicMomentDetector(cfg MomentConfig) *HeuristicMomentDetector {
	return &HeuristicMomentDetector{cfg: cfg}
}

// Detect emits the ranked key-moment list. Zero scenes or zero frames yields
// an empty list, never an error.
func (d *HeuristicMomentDetector) Detect(frames []*model.SampledFrame, scenes []*model.Scene, diffs []float64, characters []*model.TrackedCharacter) []*model.KeyMoment {
	moments := make([]*model.KeyMoment, 0)
	for _, scene := range scenes {
		moments = append(moments, d.sceneMoments(frames, scene, diffs, characters)...)
	}

	sort.SliceStable(moments, func(i, j int) bool {
		if moments[i].Importance != moments[j].Importance {
			return moments[i].Importance > moments[j].Importance
		}
		if moments[i].TimeCode != moments[j].TimeCode {
			return moments[i].TimeCode < moments[j].TimeCode
		}
		return moments[i].SceneId < moments[j].SceneId
	})
	if len(moments) > d.cfg.MaxMoments {
		moments = moments[:d.cfg.MaxMoments]
	}
	for i, m := range moments {
		m.Id = model.MomentId(i + 1)
	}
	return moments
}

func (d *HeuristicMomentDetector) sceneMoments(frames []*model.SampledFrame, scene *model.Scene, diffs []float64, characters []*model.TrackedCharacter) []*model.KeyMoment {
	sceneChars := charactersInScene(characters, scene.Id)
	var primary *model.TrackedCharacter
	if len(sceneChars) > 0 {
		primary = sceneChars[0]
	}
	primaryId := ""
	if primary != nil {
		primaryId = primary.Id
	}

	first := frames[scene.StartFrame]
	last := frames[scene.EndFrame]
	out := make([]*model.KeyMoment, 0, 5)

	// Entrance: the scene opens with at least one character present.
	if primary != nil {
		out = append(out, &model.KeyMoment{
			SceneId:     scene.Id,
			CharacterId: primaryId,
			TimeCode:    first.Timestamp,
			Type:        model.MomentEntrance,
			Importance:  math.Min(100, 50+0.4*scene.MotionIntensity),
			Thumbnail:   first.Thumbnail,
			Description: fmt.Sprintf("%s enters as %s opens", primary.Label, scene.Id),
		})
	}

	// Climax: the single highest intra-scene difference, if dramatic enough.
	// The opening cut diff is outside the scene and never considered.
	if scene.FrameCount() > 1 {
		peak := scene.StartFrame + 1
		for i := scene.StartFrame + 1; i <= scene.EndFrame; i++ {
			if diffs[i] > diffs[peak] {
				peak = i
			}
		}
		if diffs[peak] > d.cfg.MinDramaThreshold {
			out = append(out, &model.KeyMoment{
				SceneId:     scene.Id,
				CharacterId: primaryId,
				TimeCode:    frames[peak].Timestamp,
				Type:        model.MomentClimax,
				Importance:  math.Min(100, 55+40*(diffs[peak]/80)),
				Thumbnail:   frames[peak].Thumbnail,
				Description: fmt.Sprintf("Action peaks in %s", scene.Id),
			})
		}
	}

	// Focus: in the later two-thirds of the scene the camera holds still,
	// measured as the lowest difference dropping below half the scene's
	// average.
	if scene.FrameCount() >= 3 {
		avg := sceneAverageDiff(scene, diffs)
		lateStart := scene.StartFrame + scene.FrameCount()/3
		if lateStart <= scene.StartFrame {
			lateStart = scene.StartFrame + 1
		}
		low := lateStart
		for i := lateStart; i <= scene.EndFrame; i++ {
			if diffs[i] < diffs[low] {
				low = i
			}
		}
		if diffs[low] < avg/2 {
			out = append(out, &model.KeyMoment{
				SceneId:     scene.Id,
				CharacterId: primaryId,
				TimeCode:    frames[low].Timestamp,
				Type:        model.MomentFocus,
				Importance:  math.Min(100, 60+8*float64(len(sceneChars))),
				Thumbnail:   frames[low].Thumbnail,
				Description: fmt.Sprintf("The camera holds steady in %s", scene.Id),
			})
		}
	}

	// Transformation: the first sufficiently late frame whose difference
	// exceeds the abrupt-change threshold. At most one per scene.
	for i := scene.StartFrame + 1; i <= scene.EndFrame; i++ {
		if frames[i].Timestamp-scene.StartTime <= d.cfg.AbruptStartOffset {
			continue
		}
		if diffs[i] > d.cfg.AbruptChangeThreshold {
			out = append(out, &model.KeyMoment{
				SceneId:     scene.Id,
				CharacterId: primaryId,
				TimeCode:    frames[i].Timestamp,
				Type:        model.MomentTransformation,
				Importance:  math.Min(100, 65+0.3*diffs[i]),
				Thumbnail:   frames[i].Thumbnail,
				Description: fmt.Sprintf("Abrupt visual change in %s", scene.Id),
			})
			break
		}
	}

	// Exit: the scene closes with at least one character present.
	if primary != nil && scene.FrameCount() > 1 {
		out = append(out, &model.KeyMoment{
			SceneId:     scene.Id,
			CharacterId: primaryId,
			TimeCode:    last.Timestamp,
			Type:        model.MomentExit,
			Importance:  math.Max(20, 0.4*scene.MotionIntensity),
			Thumbnail:   last.Thumbnail,
			Description: fmt.Sprintf("%s exits as %s closes", primary.Label, scene.Id),
		})
	}
	return out
}

// charactersInScene preserves the finalized character order, so the first
// match is the scene's primary character.
func charactersInScene(characters []*model.TrackedCharacter, sceneId string) []*model.TrackedCharacter {
	out := make([]*model.TrackedCharacter, 0)
	for _, c := range characters {
		for _, id := range c.SceneAppearances {
			if id == sceneId {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// sceneAverageDiff averages the differences strictly inside the scene,
// excluding the opening cut.
func sceneAverageDiff(scene *model.Scene, diffs []float64) float64 {
	if scene.FrameCount() < 2 {
		return 0
	}
	var sum float64
	for i := scene.StartFrame + 1; i <= scene.EndFrame; i++ {
		sum += diffs[i]
	}
	return sum / float64(scene.FrameCount()-1)
}
