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

// Package workflow assembles the pipeline commands into the story
// intelligence chain and exposes the single entry point the embedding
// application calls per video.
package workflow

import (
	goctx "context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/jaycherian/go-story-intelligence/internal/config"
	"github.com/jaycherian/go-story-intelligence/internal/core/commands"
	"github.com/jaycherian/go-story-intelligence/internal/core/cor"
	"github.com/jaycherian/go-story-intelligence/internal/core/media"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
	"github.com/jaycherian/go-story-intelligence/internal/core/vision"
)

// Command names double as error-map keys, so the workflow can surface the
// failing stage deterministically.
const (
	commandNameValidate   = "video-validator"
	commandNameProbe      = "metadata-probe"
	commandNameSample     = "frame-sampler"
	commandNameSegment    = "scene-segmenter"
	commandNameCharacters = "character-tracker"
	commandNameMoments    = "moment-detector"
	commandNameAssemble   = "story-assembler"
)

// stageOrder lists command names in execution order. The chain stops at the
// first failing command, so scanning in this order finds the root cause.
var stageOrder = []string{
	commandNameValidate,
	commandNameProbe,
	commandNameSample,
	commandNameSegment,
	commandNameCharacters,
	commandNameMoments,
	commandNameAssemble,
}

// DecoderFactory builds the per-invocation frame decoder for a video source.
// Injecting the factory keeps the commands stateless singletons and lets
// tests substitute a synthetic decoder.
type DecoderFactory func(source *model.VideoSource, sampleRate float64) media.FrameDecoder

// NewFFmpegDecoderFactory returns the production factory, shelling out to
// ffmpeg and ffprobe.
func NewFFmpegDecoderFactory() DecoderFactory {
	return func(source *model.VideoSource, sampleRate float64) media.FrameDecoder {
		return media.NewFFmpegDecoder(source, sampleRate)
	}
}

// StoryIntelligenceWorkflow runs the full analysis pipeline for one video:
// validation, probing, frame sampling, scene segmentation, character
// tracking, key-moment detection, and assembly. The chain itself is built
// once and reused; all per-invocation state lives in the chain context.
type StoryIntelligenceWorkflow struct {
	chain          cor.Chain
	decoderFactory DecoderFactory
	sampleRate     float64
}

// NewStoryIntelligenceWorkflow wires the pipeline commands from the
// application configuration.
func NewStoryIntelligenceWorkflow(cfg *config.Config, decoderFactory DecoderFactory) *StoryIntelligenceWorkflow {
	p := cfg.Pipeline

	validator := media.NewValidator(cfg.Upload.MaxFileSizeBytes, cfg.Upload.AllowedExtensions)

	samplerConfig := media.SamplerConfig{
		TargetFPS:         p.TargetFPS,
		AnalysisWidth:     p.AnalysisWidth,
		ThumbnailWidth:    p.ThumbnailWidth,
		SeekFailureBudget: p.SeekFailureBudget,
	}

	sceneDetector := vision.NewMotionSceneDetector(vision.MotionSceneConfig{
		CutThreshold:     p.CutThreshold,
		MinSceneDuration: p.MinSceneDuration,
		IntensityCeiling: p.IntensityCeiling,
	})

	characterTracker := vision.NewGridMotionTracker(vision.GridTrackerConfig{
		HighActivityThreshold: p.HighActivityThreshold,
		NegligibleMotionFloor: p.NegligibleMotionFloor,
		StaticSceneConfidence: p.StaticSceneConfidence,
		RecurrenceBonus:       p.RecurrenceBonus,
	})

	momentDetector := vision.NewHeuristicMomentDetector(vision.MomentConfig{
		MinDramaThreshold:     p.MinDramaThreshold,
		AbruptChangeThreshold: p.AbruptChangeThreshold,
		AbruptStartOffset:     p.AbruptStartOffset,
		MaxMoments:            p.MaxMoments,
	})

	chain := cor.NewBaseChain("story-intelligence").
		AddCommand(commands.NewVideoValidator(commandNameValidate, validator)).
		AddCommand(commands.NewMetadataProbe(commandNameProbe)).
		AddCommand(commands.NewFrameSampler(commandNameSample, samplerConfig)).
		AddCommand(commands.NewSceneSegmenter(commandNameSegment, sceneDetector)).
		AddCommand(commands.NewCharacterTracker(commandNameCharacters, characterTracker)).
		AddCommand(commands.NewMomentDetector(commandNameMoments, momentDetector)).
		AddCommand(commands.NewStoryAssembler(commandNameAssemble))

	return &StoryIntelligenceWorkflow{
		chain:          chain,
		decoderFactory: decoderFactory,
		sampleRate:     p.TargetFPS,
	}
}

// Analyze runs the pipeline for one video source. It blocks until the
// analysis completes, the context is canceled, or a stage fails. The progress
// callback may be nil.
func (w *StoryIntelligenceWorkflow) Analyze(ctx goctx.Context, source *model.VideoSource, progress model.ProgressFunc) (*model.StoryAnalysis, error) {
	tracer := otel.Tracer("story-intelligence")
	traceCtx, span := tracer.Start(ctx, "analyze-video")
	defer span.End()

	chainContext := cor.NewBaseContext()
	chainContext.SetContext(traceCtx)
	chainContext.Add(cor.CtxIn, source)
	chainContext.Add(commands.GetFrameDecoderParameterName(), w.decoderFactory(source, w.sampleRate))
	chainContext.Add(commands.GetStartTimeParameterName(), time.Now())
	if progress != nil {
		chainContext.Add(commands.GetProgressFuncParameterName(), progress)
	}

	w.chain.Execute(chainContext)

	if chainContext.HasErrors() {
		span.SetStatus(codes.Error, "analysis chain failed")
		err := firstError(chainContext.GetErrors())
		if progress != nil {
			progress(model.Progress{Stage: model.StageError, Percent: 0, Message: err.Error()})
		}
		return nil, err
	}

	analysis, ok := chainContext.Get(commands.GetStoryAnalysisParameterName()).(*model.StoryAnalysis)
	if !ok {
		span.SetStatus(codes.Error, "chain produced no analysis")
		return nil, fmt.Errorf("analysis chain completed without a result")
	}

	span.SetStatus(codes.Ok, "analysis complete")
	if progress != nil {
		progress(model.Progress{Stage: model.StageDone, Percent: 100, Message: "analysis complete"})
	}
	return analysis, nil
}

// firstError returns the error of the earliest failing stage. The chain also
// records its own name on cancellation, so unknown keys fall through to any
// recorded error.
func firstError(errorMap map[string]error) error {
	for _, name := range stageOrder {
		if err, ok := errorMap[name]; ok {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for name, err := range errorMap {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("analysis chain failed")
}
