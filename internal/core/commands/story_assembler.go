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
	"time"

	"github.com/jaycherian/go-story-intelligence/internal/core/cor"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// StoryAssembler is the terminal command. It gathers every stage's published
// output into the immutable StoryAnalysis and stamps the wall-clock
// processing time measured from the start time the workflow registered.
type StoryAssembler struct {
	cor.BaseCommand
}

// NewStoryAssembler constructs the assembly command.
func NewStoryAssembler(name string) *StoryAssembler {
	return &StoryAssembler{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires every stage output the analysis aggregates.
func (c *StoryAssembler) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) &&
		context.Get(paramVideoMetadata) != nil &&
		context.Get(paramScenes) != nil &&
		context.Get(paramCharacters) != nil
}

// Execute assembles the final result.
func (c *StoryAssembler) Execute(context cor.Context) {
	moments := context.Get(c.GetInputParam()).([]*model.KeyMoment)
	meta := context.Get(paramVideoMetadata).(*model.VideoMetadata)
	scenes := context.Get(paramScenes).([]*model.Scene)
	characters := context.Get(paramCharacters).([]*model.TrackedCharacter)

	analysis := &model.StoryAnalysis{
		Metadata:   meta,
		Scenes:     scenes,
		Characters: characters,
		Moments:    moments,
	}

	if start, ok := context.Get(paramStartTime).(time.Time); ok {
		analysis.ProcessingTimeMillis = time.Since(start).Milliseconds()
	}

	slog.Info("assembled story analysis",
		"file", meta.FileName,
		"scenes", len(scenes),
		"characters", len(characters),
		"moments", len(moments),
		"processing_ms", analysis.ProcessingTimeMillis)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(paramStoryAnalysis, analysis)
	context.Add(cor.CtxOut, analysis)
}
