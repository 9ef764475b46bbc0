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
	"sort"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// CharacterTracker identifies subjects that persist or recur across scenes.
// The diffs argument is the per-frame difference series produced by the
// SceneDetector over the same frames.
type CharacterTracker interface {
	Track(frames []*model.SampledFrame, scenes []*model.Scene, diffs []float64) []*model.TrackedCharacter
}

// GridTrackerConfig tunes the grid-motion character tracker.
type GridTrackerConfig struct {
	// HighActivityThreshold is the scene motion intensity above which two
	// seeds are emitted on the assumption of two simultaneous subjects. The
	// exact cutoff is a tunable heuristic, not a calibrated constant.
	HighActivityThreshold float64
	// NegligibleMotionFloor is the accumulated per-cell motion below which a
	// candidate seed is discarded as noise.
	NegligibleMotionFloor float64
	// StaticSceneConfidence is the fixed confidence assigned to the
	// center-cell fallback seed of scenes too short to carry a motion
	// signal.
	StaticSceneConfidence float64
	// RecurrenceBonus is added to a character's confidence for every scene
	// beyond the first in which it appears, capped at 100.
	RecurrenceBonus float64
}

// DefaultGridTrackerConfig returns the calibrated defaults.
func DefaultGridTrackerConfig() GridTrackerConfig {
	return GridTrackerConfig{
		HighActivityThreshold: 70.0,
		NegligibleMotionFloor: 10.0,
		StaticSceneConfidence: 30.0,
		RecurrenceBonus:       5.0,
	}
}

// GridMotionTracker is the production CharacterTracker. It ranks 3x3 grid
// cells by accumulated motion within each scene, emits one or two seeds per
// scene, and merges seeds that share a dominant cell across scenes into one
// persistent character.
//
// Merging by shared grid cell will conflate distinct subjects that occupy
// the same screen region in different scenes (always-centered speakers, for
// example). That coarseness is intentional: it approximates "a subject
// occupies roughly the same part of the frame across shots" with no
// detection model and fully deterministic output.
type GridMotionTracker struct {
	cfg GridTrackerConfig
}

// NewGridMotionTracker constructs a GridMotionTracker with the given
// configuration.
func NewGridMotionTracker(cfg GridTrackerConfig) *GridMotionTracker {
	return &GridMotionTracker{cfg: cfg}
}

// seed is a provisional per-scene character candidate before cross-scene
// merging.
type seed struct {
	cell       int
	sceneId    string
	confidence float64
	timestamp  float64 // Peak-motion frame of the scene.
	thumbnail  []byte
}

// characterBuilder accumulates the seeds merged into one character. Builders
// live in a fixed 9-slot arena indexed by dominant cell.
type characterBuilder struct {
	cell     int
	sceneIds []string
	best     seed // Highest-confidence seed; supplies thumbnail and timestamp.
}

// Track builds the finalized character list. A video with uniform or static
// content yields zero characters; that is a valid outcome, not an error.
func (t *GridMotionTracker) Track(frames []*model.SampledFrame, scenes []*model.Scene, diffs []float64) []*model.TrackedCharacter {
	var slots [GridCells]*characterBuilder

	for _, scene := range scenes {
		for _, s := range t.sceneSeeds(frames, scene, diffs) {
			b := slots[s.cell]
			if b == nil {
				slots[s.cell] = &characterBuilder{cell: s.cell, sceneIds: []string{s.sceneId}, best: s}
				continue
			}
			if b.sceneIds[len(b.sceneIds)-1] != s.sceneId {
				b.sceneIds = append(b.sceneIds, s.sceneId)
			}
			if s.confidence > b.best.confidence {
				b.best = s
			}
		}
	}

	builders := make([]*characterBuilder, 0, GridCells)
	for _, b := range slots {
		if b != nil {
			builders = append(builders, b)
		}
	}
	// Order by earliest representative timestamp; cell index breaks ties so
	// identical inputs always produce identical output.
	sort.SliceStable(builders, func(i, j int) bool {
		if builders[i].best.timestamp != builders[j].best.timestamp {
			return builders[i].best.timestamp < builders[j].best.timestamp
		}
		return builders[i].cell < builders[j].cell
	})

	sceneById := make(map[string]*model.Scene, len(scenes))
	for _, s := range scenes {
		sceneById[s.Id] = s
	}

	out := make([]*model.TrackedCharacter, 0, len(builders))
	for i, b := range builders {
		firstSeen := math.Inf(1)
		lastSeen := math.Inf(-1)
		for _, id := range b.sceneIds {
			s := sceneById[id]
			firstSeen = math.Min(firstSeen, s.StartTime)
			lastSeen = math.Max(lastSeen, s.EndTime)
		}
		confidence := math.Min(100, b.best.confidence+t.cfg.RecurrenceBonus*float64(len(b.sceneIds)-1))
		out = append(out, &model.TrackedCharacter{
			Id:               model.CharacterId(i + 1),
			Label:            model.CharacterLabel(i + 1),
			FirstSeen:        firstSeen,
			LastSeen:         lastSeen,
			SceneAppearances: b.sceneIds,
			Thumbnail:        b.best.thumbnail,
			DominantRegion:   CellRegion(b.cell),
			Confidence:       confidence,
		})
	}
	return out
}

// sceneSeeds emits the per-scene character candidates. Scenes with a single
// frame carry no motion signal and degrade to a center-cell seed at the
// conservative confidence floor.
func (t *GridMotionTracker) sceneSeeds(frames []*model.SampledFrame, scene *model.Scene, diffs []float64) []seed {
	if scene.FrameCount() < 2 {
		f := frames[scene.StartFrame]
		return []seed{{
			cell:       CenterCell,
			sceneId:    scene.Id,
			confidence: t.cfg.StaticSceneConfidence,
			timestamp:  f.Timestamp,
			thumbnail:  f.Thumbnail,
		}}
	}

	// Accumulate per-cell motion over every consecutive frame pair in the
	// scene, and track the frame with the highest total-frame motion.
	var cells [GridCells]float64
	peak := scene.StartFrame + 1
	for i := scene.StartFrame + 1; i <= scene.EndFrame; i++ {
		prev := frames[i-1].Pixels
		cur := frames[i].Pixels
		bounds := cur.Bounds()
		for c := 0; c < GridCells; c++ {
			cells[c] += RegionDiff(prev, cur, CellBounds(bounds, c))
		}
		if diffs[i] > diffs[peak] {
			peak = i
		}
	}

	order := make([]int, GridCells)
	for c := range order {
		order[c] = c
	}
	sort.SliceStable(order, func(i, j int) bool {
		return cells[order[i]] > cells[order[j]]
	})

	seedCount := 1
	if scene.MotionIntensity > t.cfg.HighActivityThreshold {
		seedCount = 2
	}

	pairs := float64(scene.FrameCount() - 1)
	peakFrame := frames[peak]
	out := make([]seed, 0, seedCount)
	for i := 0; i < seedCount; i++ {
		cell := order[i]
		if cells[cell] < t.cfg.NegligibleMotionFloor {
			continue
		}
		out = append(out, seed{
			cell:       cell,
			sceneId:    scene.Id,
			confidence: math.Min(95, 40+cells[cell]/pairs),
			timestamp:  peakFrame.Timestamp,
			thumbnail:  peakFrame.Thumbnail,
		})
	}
	return out
}
