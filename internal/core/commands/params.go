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

// Package commands provides the concrete Command implementations the story
// intelligence workflow is assembled from. Each command performs one pipeline
// stage: validation, probing, frame sampling, scene segmentation, character
// tracking, moment detection, and final assembly. Commands communicate
// through well-known context parameter names defined in this file; the chain
// additionally pipes each command's primary output into the next command's
// primary input.
package commands

import (
	"github.com/jaycherian/go-story-intelligence/internal/core/cor"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// Context parameter names shared across commands. Stage outputs are stored
// under these keys in addition to the CtxOut pipe so later commands can reach
// back to earlier results.
const (
	paramVideoSource   = "VIDEO_SOURCE"
	paramFrameDecoder  = "FRAME_DECODER"
	paramVideoMetadata = "VIDEO_METADATA"
	paramFrames        = "SAMPLED_FRAMES"
	paramFrameDiffs    = "FRAME_DIFFS"
	paramScenes        = "SCENES"
	paramCharacters    = "CHARACTERS"
	paramMoments       = "KEY_MOMENTS"
	paramStartTime     = "ANALYSIS_START_TIME"
	paramProgressFunc  = "PROGRESS_FUNC"
	paramStoryAnalysis = "STORY_ANALYSIS"
)

func GetVideoSourceParameterName() string   { return paramVideoSource }
func GetFrameDecoderParameterName() string  { return paramFrameDecoder }
func GetVideoMetadataParameterName() string { return paramVideoMetadata }
func GetFramesParameterName() string        { return paramFrames }
func GetFrameDiffsParameterName() string    { return paramFrameDiffs }
func GetScenesParameterName() string        { return paramScenes }
func GetCharactersParameterName() string    { return paramCharacters }
func GetMomentsParameterName() string       { return paramMoments }
func GetStartTimeParameterName() string     { return paramStartTime }
func GetProgressFuncParameterName() string  { return paramProgressFunc }
func GetStoryAnalysisParameterName() string { return paramStoryAnalysis }

// reportProgress invokes the invocation's progress callback if one was
// registered on the context. The callback contract is non-blocking, so this
// is safe to call between units of work.
func reportProgress(context cor.Context, stage model.Stage, percent float64, message string) {
	callback, ok := context.Get(paramProgressFunc).(model.ProgressFunc)
	if !ok || callback == nil {
		return
	}
	callback(model.Progress{Stage: stage, Percent: percent, Message: message})
}
