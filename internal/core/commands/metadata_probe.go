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
	"github.com/jaycherian/go-story-intelligence/internal/core/media"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// MetadataProbe extracts the video's duration, dimensions, and sampling plan
// through the invocation's frame decoder. The decoder is a per-invocation
// object the workflow registers on the context, which keeps this command a
// stateless singleton.
type MetadataProbe struct {
	cor.BaseCommand
}

// NewMetadataProbe constructs the probe command.
func NewMetadataProbe(name string) *MetadataProbe {
	return &MetadataProbe{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable additionally requires the per-invocation decoder.
func (c *MetadataProbe) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) &&
		context.Get(paramFrameDecoder) != nil
}

// Execute probes the video and publishes its metadata. The probe runs against
// a temp copy of the upload, so the original file name from the source is
// stamped onto the metadata.
func (c *MetadataProbe) Execute(context cor.Context) {
	source := context.Get(c.GetInputParam()).(*model.VideoSource)
	decoder := context.Get(paramFrameDecoder).(media.FrameDecoder)

	meta, err := decoder.Probe(context.GetContext())
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	meta.FileName = source.FileName

	slog.Info("probed video",
		"file", meta.FileName,
		"duration_seconds", meta.DurationSeconds,
		"sampling_instants", meta.FrameCount)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(paramVideoMetadata, meta)
	context.Add(cor.CtxOut, meta)
}
