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

// MomentDetector scores narrative events over the scene and character
// results. It is the last analysis stage before assembly.
type MomentDetector struct {
	cor.BaseCommand
	detector vision.MomentDetector
}

// NewMomentDetector constructs the detection command around a detector.
func NewMomentDetector(name string, detector vision.MomentDetector) *MomentDetector {
	return &MomentDetector{
		BaseCommand: *cor.NewBaseCommand(name),
		detector:    detector,
	}
}

// IsExecutable additionally requires the frames, scenes, and diff series. The
// character list may legitimately be empty but must have been produced.
func (c *MomentDetector) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) &&
		context.Get(paramFrames) != nil &&
		context.Get(paramScenes) != nil &&
		context.Get(paramFrameDiffs) != nil
}

// Execute detects and ranks key moments.
func (c *MomentDetector) Execute(context cor.Context) {
	characters := context.Get(c.GetInputParam()).([]*model.TrackedCharacter)
	frames := context.Get(paramFrames).([]*model.SampledFrame)
	scenes := context.Get(paramScenes).([]*model.Scene)
	diffs := context.Get(paramFrameDiffs).([]float64)

	reportProgress(context, model.StageDetectingMoments, 0, "detecting key moments")
	moments := c.detector.Detect(frames, scenes, diffs, characters)
	reportProgress(context, model.StageDetectingMoments, 100, "detection complete")

	slog.Info("detected key moments", "scenes", len(scenes), "moments", len(moments))

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(paramMoments, moments)
	context.Add(cor.CtxOut, moments)
}
