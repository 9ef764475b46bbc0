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

// Package test provides synthetic frame builders and a deterministic
// in-memory frame decoder so the pipeline can be exercised end to end
// without ffmpeg or real video files.
package test

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/jaycherian/go-story-intelligence/internal/config"
	"github.com/jaycherian/go-story-intelligence/internal/core/media"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
	"github.com/jaycherian/go-story-intelligence/internal/core/vision"
)

// GetTestConfig returns the compiled-in default configuration, which is what
// the pipeline tests calibrate their synthetic inputs against.
func GetTestConfig() *config.Config {
	return config.NewConfig()
}

// Gray returns an opaque gray of the given brightness.
func Gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// SolidFrame returns a frame buffer filled with one color.
func SolidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// FillCell paints one 3x3 grid cell of the frame with the given color,
// leaving the rest untouched.
func FillCell(img *image.RGBA, cell int, c color.RGBA) {
	draw.Draw(img, vision.CellBounds(img.Bounds(), cell), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// Frame wraps a pixel buffer as a sampled frame at the given position. The
// thumbnail is a small marker payload so identity assertions have something
// to compare.
func Frame(index int, timestamp float64, pixels *image.RGBA) *model.SampledFrame {
	return &model.SampledFrame{
		Index:     index,
		Timestamp: timestamp,
		Pixels:    pixels,
		Thumbnail: []byte(fmt.Sprintf("thumb-%d", index)),
	}
}

// Frames builds a contiguous frame sequence at one-second spacing from the
// given pixel buffers.
func Frames(buffers ...*image.RGBA) []*model.SampledFrame {
	out := make([]*model.SampledFrame, 0, len(buffers))
	for i, b := range buffers {
		out = append(out, Frame(i, float64(i), b))
	}
	return out
}

// FakeDecoder is a deterministic in-memory FrameDecoder. FrameAt maps a
// timestamp to the frame content; the call counters let tests assert how
// much decoding a scenario cost.
type FakeDecoder struct {
	Meta     *model.VideoMetadata
	FrameAt  func(seconds float64) (image.Image, error)
	ProbeErr error

	ProbeCalls  int
	DecodeCalls int
}

var _ media.FrameDecoder = (*FakeDecoder)(nil)

func (d *FakeDecoder) Probe(_ context.Context) (*model.VideoMetadata, error) {
	d.ProbeCalls++
	if d.ProbeErr != nil {
		return nil, d.ProbeErr
	}
	return d.Meta, nil
}

func (d *FakeDecoder) DecodeAt(_ context.Context, seconds float64) (image.Image, error) {
	d.DecodeCalls++
	return d.FrameAt(seconds)
}

// NewFakeDecoder builds a decoder over a fixed-duration synthetic video
// whose content is defined per whole-second instant. Instants beyond the
// slice repeat the last entry.
func NewFakeDecoder(durationSeconds float64, fps float64, instants []*image.RGBA) *FakeDecoder {
	width, height := 0, 0
	if len(instants) > 0 {
		width = instants[0].Bounds().Dx()
		height = instants[0].Bounds().Dy()
	}
	return &FakeDecoder{
		Meta: &model.VideoMetadata{
			FileName:        "synthetic.mp4",
			DurationSeconds: durationSeconds,
			Width:           width,
			Height:          height,
			SampleRate:      fps,
			FrameCount:      media.SamplingInstants(durationSeconds, fps),
		},
		FrameAt: func(seconds float64) (image.Image, error) {
			i := int(seconds * fps)
			if i >= len(instants) {
				i = len(instants) - 1
			}
			return instants[i], nil
		},
	}
}
