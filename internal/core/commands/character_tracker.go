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

// CharacterTracker derives persistent characters from per-scene motion
// concentration. It consumes the frames, scenes, and diff series published by
// the earlier stages.
type CharacterTracker struct {
	cor.BaseCommand
	tracker vision.CharacterTracker
}

// NewCharacterTracker constructs the tracking command around a tracker.
func NewCharacterTracker(name string, tracker vision.CharacterTracker) *CharacterTracker {
	return &CharacterTracker{
		BaseCommand: *cor.NewBaseCommand(name),
		tracker:     tracker,
	}
}

// IsExecutable additionally requires the sampled frames and diff series from
// the earlier stages.
func (c *CharacterTracker) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) &&
		context.Get(paramFrames) != nil &&
		context.Get(paramFrameDiffs) != nil
}

// Execute tracks characters across the scene list.
func (c *CharacterTracker) Execute(context cor.Context) {
	scenes := context.Get(c.GetInputParam()).([]*model.Scene)
	frames := context.Get(paramFrames).([]*model.SampledFrame)
	diffs := context.Get(paramFrameDiffs).([]float64)

	reportProgress(context, model.StageTrackingCharacters, 0, "tracking characters")
	characters := c.tracker.Track(frames, scenes, diffs)
	reportProgress(context, model.StageTrackingCharacters, 100, "tracking complete")

	slog.Info("tracked characters", "scenes", len(scenes), "characters", len(characters))

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(paramCharacters, characters)
	context.Add(cor.CtxOut, characters)
}
