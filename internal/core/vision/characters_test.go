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

package vision_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
	"github.com/jaycherian/go-story-intelligence/internal/core/vision"
	test "github.com/jaycherian/go-story-intelligence/internal/testutil"
)

// flickerCellFrames builds frames where only one grid cell alternates
// between two brightness levels. The localized motion is strong inside the
// cell but diluted below the scene cut threshold over the full frame.
func flickerCellFrames(n, cell int) []*model.SampledFrame {
	buffers := make([]*image.RGBA, 0, n)
	for i := 0; i < n; i++ {
		b := test.SolidFrame(160, 90, test.Gray(100))
		if i%2 == 1 {
			test.FillCell(b, cell, test.Gray(250))
		}
		buffers = append(buffers, b)
	}
	return test.Frames(buffers...)
}

func diffSeries(frames []*model.SampledFrame) []float64 {
	diffs := make([]float64, len(frames))
	for i := 1; i < len(frames); i++ {
		diffs[i] = vision.FrameDiff(frames[i-1].Pixels, frames[i].Pixels)
	}
	return diffs
}

func TestTrackFindsCharacterInDominantCell(t *testing.T) {
	frames := flickerCellFrames(6, 0)

	sceneDetector := vision.NewMotionSceneDetector(vision.DefaultMotionSceneConfig())
	scenes, diffs := sceneDetector.DetectScenes(frames)
	// The motion is confined to one cell, so the full-frame difference
	// stays below the cut threshold and the video remains one scene.
	require.Len(t, scenes, 1)

	tracker := vision.NewGridMotionTracker(vision.DefaultGridTrackerConfig())
	characters := tracker.Track(frames, scenes, diffs)

	require.Len(t, characters, 1)
	c := characters[0]
	assert.Equal(t, "char_01", c.Id)
	assert.Equal(t, "Character 1", c.Label)
	assert.Equal(t, []string{"scene_01"}, c.SceneAppearances)
	assert.Equal(t, vision.CellRegion(0), c.DominantRegion)
	assert.Equal(t, scenes[0].StartTime, c.FirstSeen)
	assert.Equal(t, scenes[0].EndTime, c.LastSeen)
	// Per-pair cell motion is 150, which saturates the seed confidence cap.
	assert.Equal(t, 95.0, c.Confidence)
}

func TestTrackStaticVideoYieldsNoCharacters(t *testing.T) {
	buffers := make([]*image.RGBA, 6)
	for i := range buffers {
		buffers[i] = test.SolidFrame(160, 90, test.Gray(100))
	}
	frames := test.Frames(buffers...)

	sceneDetector := vision.NewMotionSceneDetector(vision.DefaultMotionSceneConfig())
	scenes, diffs := sceneDetector.DetectScenes(frames)
	require.Len(t, scenes, 1)

	tracker := vision.NewGridMotionTracker(vision.DefaultGridTrackerConfig())
	characters := tracker.Track(frames, scenes, diffs)
	assert.Empty(t, characters)
}

func TestTrackSingleFrameSceneDegradesToCenterCell(t *testing.T) {
	frames := test.Frames(test.SolidFrame(160, 90, test.Gray(100)))
	scenes := []*model.Scene{{
		Id:         "scene_01",
		StartFrame: 0,
		EndFrame:   0,
		StartTime:  0,
		EndTime:    0,
	}}

	tracker := vision.NewGridMotionTracker(vision.DefaultGridTrackerConfig())
	characters := tracker.Track(frames, scenes, diffSeries(frames))

	require.Len(t, characters, 1)
	assert.Equal(t, vision.CellRegion(vision.CenterCell), characters[0].DominantRegion)
	assert.Equal(t, 30.0, characters[0].Confidence)
	assert.Equal(t, frames[0].Thumbnail, characters[0].Thumbnail)
}

func TestTrackMergesRecurringCharacterAcrossScenes(t *testing.T) {
	// Two scenes, both with motion concentrated in cell 0, merge into one
	// character with a recurrence bonus.
	frames := flickerCellFrames(6, 0)
	scenes := []*model.Scene{
		{Id: "scene_01", StartFrame: 0, EndFrame: 2, StartTime: 0, EndTime: 3, MotionIntensity: 40},
		{Id: "scene_02", StartFrame: 3, EndFrame: 5, StartTime: 3, EndTime: 5, MotionIntensity: 40},
	}

	tracker := vision.NewGridMotionTracker(vision.DefaultGridTrackerConfig())
	characters := tracker.Track(frames, scenes, diffSeries(frames))

	require.Len(t, characters, 1)
	c := characters[0]
	assert.Equal(t, []string{"scene_01", "scene_02"}, c.SceneAppearances)
	assert.Equal(t, 0.0, c.FirstSeen)
	assert.Equal(t, 5.0, c.LastSeen)
	// Best seed confidence 95 plus one recurrence bonus of 5, capped at 100.
	assert.Equal(t, 100.0, c.Confidence)
}

func TestTrackDistinctCellsYieldDistinctCharacters(t *testing.T) {
	// Motion in cell 0 during the first scene and cell 8 during the second
	// must not merge.
	buffers := make([]*image.RGBA, 6)
	for i := range buffers {
		b := test.SolidFrame(160, 90, test.Gray(100))
		if i%2 == 1 {
			cell := 0
			if i >= 3 {
				cell = 8
			}
			test.FillCell(b, cell, test.Gray(250))
		}
		buffers[i] = b
	}
	frames := test.Frames(buffers...)
	scenes := []*model.Scene{
		{Id: "scene_01", StartFrame: 0, EndFrame: 2, StartTime: 0, EndTime: 3, MotionIntensity: 40},
		{Id: "scene_02", StartFrame: 3, EndFrame: 5, StartTime: 3, EndTime: 5, MotionIntensity: 40},
	}

	tracker := vision.NewGridMotionTracker(vision.DefaultGridTrackerConfig())
	characters := tracker.Track(frames, scenes, diffSeries(frames))

	require.Len(t, characters, 2)
	assert.Equal(t, "char_01", characters[0].Id)
	assert.Equal(t, "char_02", characters[1].Id)
	assert.Equal(t, []string{"scene_01"}, characters[0].SceneAppearances)
	assert.Equal(t, []string{"scene_02"}, characters[1].SceneAppearances)
	assert.NotEqual(t, characters[0].DominantRegion, characters[1].DominantRegion)
}
