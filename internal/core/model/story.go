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

// Package model defines the core data structures for the story intelligence
// pipeline. Everything in this file is produced exactly once per analyzed
// video, in a single top-down pass, and is never mutated after the pipeline
// hands it to the caller: scenes reference nothing downstream, characters
// reference scene identifiers only, and key moments reference scene and
// character identifiers only.
package model

import (
	"fmt"
	"image"
)

// VideoSource describes the raw input handed to the pipeline by the embedding
// application: a local file plus the metadata declared at upload time. The
// declared values are validated before any decoding starts.
type VideoSource struct {
	Path         string // Local filesystem path to the uploaded file.
	FileName     string // Original file name as declared by the uploader.
	DeclaredMIME string // Content type declared at upload time, may be empty.
	SizeBytes    int64  // Size of the file in bytes.
}

// VideoMetadata is derived once from the input file at pipeline start and is
// never mutated afterward.
type VideoMetadata struct {
	FileName        string  `json:"file_name"`
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	SampleRate      float64 `json:"sample_rate"`  // Analysis sampling rate in frames per second.
	FrameCount      int     `json:"frame_count"`  // Number of sampling instants in [0, duration).
	SizeBytes       int64   `json:"size_bytes"`
}

// SampledFrame is one decoded frame at a single sampling instant. The pixel
// buffer is at analysis resolution and is the input for all motion math; the
// thumbnail is a display-quality JPEG and is the only part retained in the
// final result. Frames are owned by the sampler until handed downstream and
// are never mutated after creation.
type SampledFrame struct {
	Index     int         // 0-based, contiguous even when instants were skipped.
	Timestamp float64     // Seconds, monotonic non-decreasing.
	Pixels    *image.RGBA // Analysis-resolution buffer.
	Thumbnail []byte      // JPEG-encoded display thumbnail.
}

// Region is a fractional rectangle with all coordinates in [0, 1], relative
// to the frame bounds.
type Region struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Scene is a contiguous half-open time range over the frame sequence. Scenes
// are contiguous, non-overlapping, and together cover every sampled frame
// exactly once: EndFrame+1 of one scene is StartFrame of the next, and
// EndTime of one scene equals StartTime of the next (the final scene ends at
// the last frame timestamp).
type Scene struct {
	Id              string  `json:"id"` // Sequential, 1-based, zero-padded ("scene_01").
	StartFrame      int     `json:"start_frame"`
	EndFrame        int     `json:"end_frame"`
	StartTime       float64 `json:"start_time"`
	EndTime         float64 `json:"end_time"`
	Thumbnail       []byte  `json:"thumbnail,omitempty"` // Temporal-midpoint frame.
	MotionIntensity float64 `json:"motion_intensity"`    // Aggregate motion, 0-100.
}

// FrameCount returns the number of sampled frames the scene spans.
func (s *Scene) FrameCount() int {
	return s.EndFrame - s.StartFrame + 1
}

// TrackedCharacter is a persistent subject merged from per-scene motion
// seeds. FirstSeen is always <= LastSeen, and every entry of SceneAppearances
// exists in the scene list of the same analysis. Characters are built once
// and never re-merged or split afterward.
type TrackedCharacter struct {
	Id               string   `json:"id"`    // Sequential ("char_01").
	Label            string   `json:"label"` // Human-facing ("Character 1").
	FirstSeen        float64  `json:"first_seen"`
	LastSeen         float64  `json:"last_seen"`
	SceneAppearances []string `json:"scene_appearances"`
	Thumbnail        []byte   `json:"thumbnail,omitempty"`
	DominantRegion   Region   `json:"dominant_region"`
	Confidence       float64  `json:"confidence"` // Tracking confidence, 0-100.
}

// MomentType enumerates the narrative event categories the detector emits.
type MomentType string

const (
	MomentEntrance       MomentType = "entrance"
	MomentClimax         MomentType = "climax"
	MomentFocus          MomentType = "focus"
	MomentTransformation MomentType = "transformation"
	MomentExit           MomentType = "exit"
)

// KeyMoment is a scored narrative event. TimeCode always falls within the
// referenced scene's time range.
type KeyMoment struct {
	Id          string     `json:"id"` // Sequential after ranking ("moment_01").
	SceneId     string     `json:"scene_id"`
	CharacterId string     `json:"character_id,omitempty"`
	TimeCode    float64    `json:"time_code"`
	Type        MomentType `json:"type"`
	Importance  float64    `json:"importance"` // 0-100.
	Thumbnail   []byte     `json:"thumbnail,omitempty"`
	Description string     `json:"description"`
}

// StoryAnalysis is the single immutable result of one pipeline invocation.
type StoryAnalysis struct {
	Metadata             *VideoMetadata      `json:"metadata"`
	Scenes               []*Scene            `json:"scenes"`
	Characters           []*TrackedCharacter `json:"characters"`
	Moments              []*KeyMoment        `json:"moments"`
	ProcessingTimeMillis int64               `json:"processing_time_millis"`
}

// SceneId formats the 1-based sequential scene identifier.
func SceneId(sequence int) string {
	return fmt.Sprintf("scene_%02d", sequence)
}

// CharacterId formats the 1-based sequential character identifier.
func CharacterId(sequence int) string {
	return fmt.Sprintf("char_%02d", sequence)
}

// CharacterLabel formats the human-facing character label.
func CharacterLabel(sequence int) string {
	return fmt.Sprintf("Character %d", sequence)
}

// MomentId formats the 1-based sequential moment identifier.
func MomentId(sequence int) string {
	return fmt.Sprintf("moment_%02d", sequence)
}
