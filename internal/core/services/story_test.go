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

package services_test

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-story-intelligence/internal/core/media"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
	"github.com/jaycherian/go-story-intelligence/internal/core/services"
	"github.com/jaycherian/go-story-intelligence/internal/core/workflow"
	test "github.com/jaycherian/go-story-intelligence/internal/testutil"
)

func mp4Header() []byte {
	return []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'm', 'p', '4', '2',
		0x00, 0x00, 0x00, 0x00,
		'm', 'p', '4', '2', 'i', 's', 'o', 'm',
	}
}

func writeUpload(t *testing.T) *model.VideoSource {
	t.Helper()
	content := mp4Header()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, content, 0644))
	return &model.VideoSource{
		Path:         path,
		FileName:     "clip.mp4",
		DeclaredMIME: "video/mp4",
		SizeBytes:    int64(len(content)),
	}
}

func newTestService(t *testing.T) (*services.StoryService, *services.AnalysisStore) {
	t.Helper()
	cfg := test.GetTestConfig()
	cfg.Upload.RatePerMinute = 600
	cfg.Upload.Burst = 100
	cfg.Pipeline.TimeoutSeconds = 30

	instants := make([]*image.RGBA, 5)
	for i := range instants {
		instants[i] = test.SolidFrame(320, 180, test.Gray(uint8(50+40*i)))
	}
	factory := func(_ *model.VideoSource, _ float64) media.FrameDecoder {
		return test.NewFakeDecoder(5.0, 1.0, instants)
	}

	store := newTestStore(t)
	wf := workflow.NewStoryIntelligenceWorkflow(cfg, factory)
	return services.NewStoryService(cfg, wf, store), store
}

func TestSubmitRunsToCompletion(t *testing.T) {
	svc, _ := newTestService(t)
	source := writeUpload(t)

	id, err := svc.Submit(source)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		status, err := svc.Status(id)
		return err == nil && status.State == services.JobDone
	}, 10*time.Second, 20*time.Millisecond)

	analysis, err := svc.GetAnalysis(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", analysis.Metadata.FileName)

	// The uploaded temp file is removed once the job finishes.
	_, err = os.Stat(source.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestSubmitRateLimited(t *testing.T) {
	cfg := test.GetTestConfig()
	cfg.Upload.RatePerMinute = 0
	cfg.Upload.Burst = 1

	factory := func(_ *model.VideoSource, _ float64) media.FrameDecoder {
		return test.NewFakeDecoder(1.0, 1.0, []*image.RGBA{test.SolidFrame(320, 180, test.Gray(100))})
	}
	svc := services.NewStoryService(cfg, workflow.NewStoryIntelligenceWorkflow(cfg, factory), newTestStore(t))

	_, err := svc.Submit(writeUpload(t))
	require.NoError(t, err)

	_, err = svc.Submit(writeUpload(t))
	assert.ErrorIs(t, err, services.ErrRateLimited)
}

func TestStatusUnknownJob(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Status("missing")
	assert.ErrorIs(t, err, services.ErrJobNotFound)
}

func TestSubmitFailedAnalysisReportsError(t *testing.T) {
	svc, _ := newTestService(t)

	// A file that fails validation inside the pipeline marks the job
	// failed rather than panicking or hanging.
	content := []byte("not a video at all")
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, content, 0644))
	source := &model.VideoSource{Path: path, FileName: "clip.mp4", SizeBytes: int64(len(content))}

	id, err := svc.Submit(source)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, err := svc.Status(id)
		return err == nil && status.State == services.JobFailed
	}, 10*time.Second, 20*time.Millisecond)

	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.NotEmpty(t, status.Error)
}
