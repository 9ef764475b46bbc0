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
	"errors"
	"io"
	"log/slog"

	"github.com/jaycherian/go-story-intelligence/internal/core/cor"
	"github.com/jaycherian/go-story-intelligence/internal/core/media"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// FrameSampler drives the lazy frame sequence to exhaustion and collects the
// sampled frames for the analysis stages. The pull loop is the pipeline's
// only long-running decode phase, so this command is where per-frame
// progress reporting and cancellation observation happen.
type FrameSampler struct {
	cor.BaseCommand
	cfg media.SamplerConfig
}

// NewFrameSampler constructs the sampling command with a fixed sampler
// configuration.
func NewFrameSampler(name string, cfg media.SamplerConfig) *FrameSampler {
	return &FrameSampler{
		BaseCommand: *cor.NewBaseCommand(name),
		cfg:         cfg,
	}
}

// IsExecutable additionally requires the per-invocation decoder.
func (c *FrameSampler) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) &&
		context.Get(paramFrameDecoder) != nil
}

// Execute pulls frames until the sequence reports io.EOF, a budget overrun,
// or cancellation.
func (c *FrameSampler) Execute(context cor.Context) {
	meta := context.Get(c.GetInputParam()).(*model.VideoMetadata)
	decoder := context.Get(paramFrameDecoder).(media.FrameDecoder)

	sequence, err := media.NewFrameSequence(decoder, meta, c.cfg)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	total := sequence.Total()
	frames := make([]*model.SampledFrame, 0, total)

	reportProgress(context, model.StageSamplingFrames, 0, "sampling frames")
	for {
		frame, err := sequence.Next(context.GetContext())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), err)
			return
		}
		frames = append(frames, frame)
		if total > 0 {
			reportProgress(context, model.StageSamplingFrames,
				float64(len(frames))/float64(total)*100, "sampling frames")
		}
	}
	reportProgress(context, model.StageSamplingFrames, 100, "sampling complete")

	slog.Info("sampled frames", "file", meta.FileName, "frames", len(frames), "instants", total)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(paramFrames, frames)
	context.Add(cor.CtxOut, frames)
}
