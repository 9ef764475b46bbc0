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

package workflow_test

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/jaycherian/go-story-intelligence/internal/core/media"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
	"github.com/jaycherian/go-story-intelligence/internal/core/workflow"
	test "github.com/jaycherian/go-story-intelligence/internal/testutil"
)

var logger = otelslog.NewLogger("github.com/jaycherian/go-story-intelligence/tests/workflow")

// writeVideoSource creates an on-disk upload whose header sniffs as MP4, so
// the validation stage passes without a real container.
func writeVideoSource(t *testing.T, name string, content []byte) *model.VideoSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return &model.VideoSource{
		Path:         path,
		FileName:     name,
		DeclaredMIME: "video/mp4",
		SizeBytes:    int64(len(content)),
	}
}

func mp4Header() []byte {
	return []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'm', 'p', '4', '2',
		0x00, 0x00, 0x00, 0x00,
		'm', 'p', '4', '2', 'i', 's', 'o', 'm',
	}
}

// hardCutInstants is ten seconds of synthetic footage with a gray-to-blue
// hard cut at the five second mark.
func hardCutInstants() []*image.RGBA {
	out := make([]*image.RGBA, 10)
	for i := range out {
		c := test.Gray(100)
		if i >= 5 {
			c = color.RGBA{B: 200, A: 255}
		}
		out[i] = test.SolidFrame(320, 180, c)
	}
	return out
}

// flickerInstants is six seconds of footage whose only motion is a flicker
// confined to the top-left grid cell.
func flickerInstants() []*image.RGBA {
	out := make([]*image.RGBA, 6)
	for i := range out {
		b := test.SolidFrame(321, 180, test.Gray(100))
		if i%2 == 1 {
			// Paint slightly past the first third so the flicker still lands
			// in cell 0 after analysis downscaling.
			for y := 0; y < 60; y++ {
				for x := 0; x < 100; x++ {
					b.SetRGBA(x, y, test.Gray(250))
				}
			}
		}
		out[i] = b
	}
	return out
}

func fakeFactory(decoder *test.FakeDecoder) workflow.DecoderFactory {
	return func(_ *model.VideoSource, _ float64) media.FrameDecoder {
		return decoder
	}
}

func TestAnalyzeHardCutVideo(t *testing.T) {
	decoder := test.NewFakeDecoder(10.0, 1.0, hardCutInstants())
	wf := workflow.NewStoryIntelligenceWorkflow(test.GetTestConfig(), fakeFactory(decoder))
	source := writeVideoSource(t, "clip.mp4", mp4Header())

	analysis, err := wf.Analyze(context.Background(), source, nil)
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.Equal(t, "clip.mp4", analysis.Metadata.FileName)
	assert.Equal(t, 10, analysis.Metadata.FrameCount)

	require.Len(t, analysis.Scenes, 2)
	assert.Equal(t, 0, analysis.Scenes[0].StartFrame)
	assert.Equal(t, 4, analysis.Scenes[0].EndFrame)
	assert.Equal(t, 5, analysis.Scenes[1].StartFrame)
	assert.Equal(t, 9, analysis.Scenes[1].EndFrame)
	assert.Equal(t, analysis.Scenes[0].EndTime, analysis.Scenes[1].StartTime)

	// Uniform color on both sides of the cut carries no localized motion:
	// no characters, and nothing dramatic inside either scene.
	assert.Empty(t, analysis.Characters)
	assert.Empty(t, analysis.Moments)
	assert.GreaterOrEqual(t, analysis.ProcessingTimeMillis, int64(0))
	logger.Info("completed hard cut analysis", "scenes", len(analysis.Scenes))
}

func TestAnalyzeFlickerVideoTracksCharacter(t *testing.T) {
	decoder := test.NewFakeDecoder(6.0, 1.0, flickerInstants())
	wf := workflow.NewStoryIntelligenceWorkflow(test.GetTestConfig(), fakeFactory(decoder))
	source := writeVideoSource(t, "clip.mp4", mp4Header())

	analysis, err := wf.Analyze(context.Background(), source, nil)
	require.NoError(t, err)

	require.Len(t, analysis.Scenes, 1)
	require.Len(t, analysis.Characters, 1)
	c := analysis.Characters[0]
	assert.Equal(t, "char_01", c.Id)
	assert.Equal(t, []string{"scene_01"}, c.SceneAppearances)

	// A tracked character produces entrance and exit moments at the scene
	// boundaries.
	types := make(map[model.MomentType]bool)
	for _, m := range analysis.Moments {
		types[m.Type] = true
		assert.Equal(t, "scene_01", m.SceneId)
	}
	assert.True(t, types[model.MomentEntrance])
	assert.True(t, types[model.MomentExit])
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	instants := hardCutInstants()
	source := writeVideoSource(t, "clip.mp4", mp4Header())

	run := func() *model.StoryAnalysis {
		decoder := test.NewFakeDecoder(10.0, 1.0, instants)
		wf := workflow.NewStoryIntelligenceWorkflow(test.GetTestConfig(), fakeFactory(decoder))
		analysis, err := wf.Analyze(context.Background(), source, nil)
		require.NoError(t, err)
		return analysis
	}

	first := run()
	second := run()

	// Identical input yields identical output, wall-clock timing aside.
	require.Equal(t, first.Metadata, second.Metadata)
	require.Equal(t, first.Scenes, second.Scenes)
	require.Equal(t, first.Characters, second.Characters)
	require.Equal(t, first.Moments, second.Moments)
}

func TestAnalyzeRejectsInvalidUploadBeforeDecoding(t *testing.T) {
	decoder := test.NewFakeDecoder(10.0, 1.0, hardCutInstants())
	wf := workflow.NewStoryIntelligenceWorkflow(test.GetTestConfig(), fakeFactory(decoder))
	source := writeVideoSource(t, "payload.exe", []byte{'M', 'Z', 0x90, 0x00})

	_, err := wf.Analyze(context.Background(), source, nil)
	require.Error(t, err)
	var validationErr *media.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	// The rejection happened before the decoder was ever touched.
	assert.Equal(t, 0, decoder.ProbeCalls)
	assert.Equal(t, 0, decoder.DecodeCalls)
}

func TestAnalyzeReportsProgress(t *testing.T) {
	decoder := test.NewFakeDecoder(10.0, 1.0, hardCutInstants())
	wf := workflow.NewStoryIntelligenceWorkflow(test.GetTestConfig(), fakeFactory(decoder))
	source := writeVideoSource(t, "clip.mp4", mp4Header())

	var snapshots []model.Progress
	_, err := wf.Analyze(context.Background(), source, func(p model.Progress) {
		snapshots = append(snapshots, p)
	})
	require.NoError(t, err)
	require.NotEmpty(t, snapshots)

	assert.Equal(t, model.StageSamplingFrames, snapshots[0].Stage)
	assert.Equal(t, model.StageDone, snapshots[len(snapshots)-1].Stage)
	for _, p := range snapshots {
		assert.GreaterOrEqual(t, p.Percent, 0.0)
		assert.LessOrEqual(t, p.Percent, 100.0)
	}
}

func TestAnalyzeCancellation(t *testing.T) {
	decoder := test.NewFakeDecoder(10.0, 1.0, hardCutInstants())
	wf := workflow.NewStoryIntelligenceWorkflow(test.GetTestConfig(), fakeFactory(decoder))
	source := writeVideoSource(t, "clip.mp4", mp4Header())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := wf.Analyze(ctx, source, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
