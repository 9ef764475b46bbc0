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
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math"
	"os/exec"
	"strconv"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// Default executable names, resolved through PATH.
const (
	DefaultFFmpegCommand  = "ffmpeg"
	DefaultFFprobeCommand = "ffprobe"
)

// FrameDecoder abstracts the container decoder behind the two operations
// the pipeline needs: a one-time metadata probe and an exact-timestamp
// frame decode. The production implementation shells out to ffmpeg; tests
// substitute a deterministic in-memory fake.
type FrameDecoder interface {
	// Probe derives the immutable VideoMetadata from the source container.
	Probe(ctx context.Context) (*model.VideoMetadata, error)

	// DecodeAt seeks to the given timestamp and decodes the frame at that
	// instant at native resolution.
	DecodeAt(ctx context.Context, seconds float64) (image.Image, error)
}

// FFmpegDecoder implements FrameDecoder by invoking ffprobe for metadata
// and ffmpeg for single-frame extraction. Each DecodeAt is an independent
// process invocation so a failed seek never poisons later ones.
type FFmpegDecoder struct {
	ffmpegPath  string
	ffprobePath string
	source      *model.VideoSource
	sampleRate  float64
}

// NewFFmpegDecoder constructs a decoder for one source file. The sample
// rate is recorded in the probed metadata so downstream stages know how
// many sampling instants to expect.
func NewFFmpegDecoder(source *model.VideoSource, sampleRate float64) *FFmpegDecoder {
	return &FFmpegDecoder{
		ffmpegPath:  DefaultFFmpegCommand,
		ffprobePath: DefaultFFprobeCommand,
		source:      source,
		sampleRate:  sampleRate,
	}
}

// ffprobeOutput mirrors the JSON ffprobe prints with -show_format and
// -show_streams.
type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

// Probe runs ffprobe and assembles the VideoMetadata. Unsupported or
// corrupt containers surface as a *DecodeError.
func (d *FFmpegDecoder) Probe(ctx context.Context) (*model.VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		d.source.Path,
	)
	raw, err := cmd.Output()
	if err != nil {
		return nil, &DecodeError{Op: "probe", Err: err}
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(raw, &probed); err != nil {
		return nil, &DecodeError{Op: "probe", Err: err}
	}

	duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil {
		return nil, &DecodeError{Op: "probe", Err: fmt.Errorf("container reports no parseable duration: %w", err)}
	}

	width, height := 0, 0
	for _, s := range probed.Streams {
		if s.CodecType == "video" {
			width, height = s.Width, s.Height
			break
		}
	}
	if width == 0 || height == 0 {
		return nil, &DecodeError{Op: "probe", Err: fmt.Errorf("no video stream in %s", d.source.FileName)}
	}

	return &model.VideoMetadata{
		FileName:        d.source.FileName,
		DurationSeconds: duration,
		Width:           width,
		Height:          height,
		SampleRate:      d.sampleRate,
		FrameCount:      SamplingInstants(duration, d.sampleRate),
		SizeBytes:       d.source.SizeBytes,
	}, nil
}

// DecodeAt extracts the frame at the given instant as a PNG piped through
// stdout. The -ss flag before -i makes ffmpeg seek on the demuxer, which is
// the fast path for exact-timestamp extraction.
func (d *FFmpegDecoder) DecodeAt(ctx context.Context, seconds float64) (image.Image, error) {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", seconds),
		"-i", d.source.Path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg seek to %.3fs: %w", seconds, err)
	}
	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode frame at %.3fs: %w", seconds, err)
	}
	return img, nil
}

// SamplingInstants returns how many instants the timestamp set
// {0, 1/fps, 2/fps, ...} contains below the given duration.
func SamplingInstants(duration, fps float64) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Ceil(duration * fps))
}
