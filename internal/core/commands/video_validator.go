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

// VideoValidator is the gatekeeper command. It runs every input check (size,
// extension, declared content type, header sniff) before any other command
// touches the file, so a rejected upload never reaches the decoder.
type VideoValidator struct {
	cor.BaseCommand
	validator *media.Validator
}

// NewVideoValidator constructs the validation command around the given
// validator.
func NewVideoValidator(name string, validator *media.Validator) *VideoValidator {
	return &VideoValidator{
		BaseCommand: *cor.NewBaseCommand(name),
		validator:   validator,
	}
}

// Execute validates the video source and, on success, republishes it for the
// downstream commands.
func (c *VideoValidator) Execute(context cor.Context) {
	source := context.Get(c.GetInputParam()).(*model.VideoSource)

	if err := c.validator.Validate(source); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		slog.Warn("rejected video upload", "file", source.FileName, "error", err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(paramVideoSource, source)
	context.Add(cor.CtxOut, source)
}
