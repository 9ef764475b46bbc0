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

package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	xdraw "golang.org/x/image/draw"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// Sampler defaults. The analysis width is deliberately small: all motion
// math runs on the reduced buffer, which is both faster and less noisy than
// source resolution. The thumbnail width only affects display quality.
const (
	DefaultTargetFPS         = 1.0
	DefaultAnalysisWidth     = 160
	DefaultThumbnailWidth    = 320
	DefaultSeekFailureBudget = 5

	thumbnailJPEGQuality = 80
	decodeAttempts       = 2
)

// SamplerConfig tunes frame sampling.
type SamplerConfig struct {
	TargetFPS         float64 // Analysis sampling rate, independent of the source frame rate.
	AnalysisWidth     int     // Fixed width of the analysis buffer; height keeps the aspect ratio.
	ThumbnailWidth    int     // Width of the display thumbnail.
	SeekFailureBudget int     // Failed instants tolerated before the run aborts.
}

// DefaultSamplerConfig returns the calibrated defaults.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		TargetFPS:         DefaultTargetFPS,
		AnalysisWidth:     DefaultAnalysisWidth,
		ThumbnailWidth:    DefaultThumbnailWidth,
		SeekFailureBudget: DefaultSeekFailureBudget,
	}
}

// FrameSequence is a lazy, ordered, finite, single-pass source of sampled
// frames covering [0, duration) at 1/TargetFPS intervals. It is not
// restartable: once exhausted (or failed, or canceled) every further Next
// call returns the same terminal condition. The pull is the pipeline's only
// suspension point; cancellation is checked on every call.
type FrameSequence struct {
	decoder  FrameDecoder
	meta     *model.VideoMetadata
	cfg      SamplerConfig
	instant  int // Next sampling instant to attempt.
	emitted  int // Frames produced so far; becomes the next frame index.
	failures int // Instants skipped due to seek/decode failure.
	done     bool
}

// NewFrameSequence builds the sampling sequence for one pipeline run. The
// target sampling rate must be positive.
func NewFrameSequence(decoder FrameDecoder, meta *model.VideoMetadata, cfg SamplerConfig) (*FrameSequence, error) {
	if cfg.TargetFPS <= 0 {
		return nil, &ValidationError{Reason: fmt.Sprintf("target sampling rate must be positive, got %v", cfg.TargetFPS)}
	}
	if cfg.AnalysisWidth <= 0 {
		cfg.AnalysisWidth = DefaultAnalysisWidth
	}
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = DefaultThumbnailWidth
	}
	if cfg.SeekFailureBudget <= 0 {
		cfg.SeekFailureBudget = DefaultSeekFailureBudget
	}
	return &FrameSequence{decoder: decoder, meta: meta, cfg: cfg}, nil
}

// Total returns the number of sampling instants the sequence will attempt,
// for progress reporting.
func (s *FrameSequence) Total() int {
	return SamplingInstants(s.meta.DurationSeconds, s.cfg.TargetFPS)
}

// Next produces the frame at the next sampling instant. It returns io.EOF
// once the duration is exhausted, the context error if the caller canceled,
// and a *SeekError once failed instants exceed the budget. Failed instants
// inside the budget are skipped silently so emitted indices stay contiguous.
func (s *FrameSequence) Next(ctx context.Context) (*model.SampledFrame, error) {
	for {
		if s.done {
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			s.done = true
			return nil, err
		}

		ts := float64(s.instant) / s.cfg.TargetFPS
		if ts >= s.meta.DurationSeconds {
			s.done = true
			return nil, io.EOF
		}
		s.instant++

		img, err := s.decodeWithRetry(ctx, ts)
		if err != nil {
			if ctx.Err() != nil {
				s.done = true
				return nil, ctx.Err()
			}
			s.failures++
			if s.failures > s.cfg.SeekFailureBudget {
				s.done = true
				return nil, &SeekError{Timestamp: ts, Failures: s.failures, Err: err}
			}
			continue
		}

		frame, err := s.buildFrame(img)
		if err != nil {
			s.done = true
			return nil, &DecodeError{Op: "decode", Err: err}
		}
		frame.Index = s.emitted
		frame.Timestamp = ts
		s.emitted++
		return frame, nil
	}
}

// decodeWithRetry gives each instant a bounded number of attempts before
// the instant counts against the failure budget.
func (s *FrameSequence) decodeWithRetry(ctx context.Context, ts float64) (image.Image, error) {
	var err error
	for attempt := 0; attempt < decodeAttempts; attempt++ {
		var img image.Image
		img, err = s.decoder.DecodeAt(ctx, ts)
		if err == nil {
			return img, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, err
}

// buildFrame materializes both representations of a decoded frame: the
// analysis-resolution pixel buffer and the display thumbnail.
func (s *FrameSequence) buildFrame(img image.Image) (*model.SampledFrame, error) {
	pixels := scaleToWidth(img, s.cfg.AnalysisWidth)

	var thumb bytes.Buffer
	err := jpeg.Encode(&thumb, scaleToWidth(img, s.cfg.ThumbnailWidth), &jpeg.Options{Quality: thumbnailJPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &model.SampledFrame{Pixels: pixels, Thumbnail: thumb.Bytes()}, nil
}

// scaleToWidth downscales to a fixed width, preserving the aspect ratio.
func scaleToWidth(src image.Image, width int) *image.RGBA {
	b := src.Bounds()
	height := 1
	if b.Dx() > 0 {
		height = b.Dy() * width / b.Dx()
		if height < 1 {
			height = 1
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
