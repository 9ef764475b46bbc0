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

package commands

import (
	"log/slog"

	"github.com/jaycherian/go-story-intelligence/internal/core/cor"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
	"github.com/jaycherian/go-story-intelligence/internal/core/vision"
)

// SceneSegmenter partitions the sampled frames into scenes. It also publishes
// the per-pair frame difference series, which both later analysis stages
// reuse instead of recomputing.
type SceneSegmenter struct {
	cor.BaseCommand
	detector vision.SceneDetector
}

// NewSceneSegmenter constructs the segmentation command around a detector.
func NewSceneSegmenter(name string, detector vision.SceneDetector) *SceneSegmenter {
	return &SceneSegmenter{
		BaseCommand: *cor.NewBaseCommand(name),
		detector:    detector,
	}
}

// Execute segments the frame sequence and publishes scenes plus diffs.
func (c *SceneSegmenter) Execute(context cor.Context) {
	frames := context.Get(c.GetInputParam()).([]*model.SampledFrame)

	reportProgress(context, model.StageSegmentingScenes, 0, "segmenting scenes")
	scenes, diffs := c.detector.DetectScenes(frames)
	reportProgress(context, model.StageSegmentingScenes, 100, "segmentation complete")

	slog.Info("segmented scenes", "frames", len(frames), "scenes", len(scenes))

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(paramScenes, scenes)
	context.Add(paramFrameDiffs, diffs)
	context.Add(cor.CtxOut, scenes)
}
