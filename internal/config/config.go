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

// Package config defines the application configuration, loaded from TOML
// files. Every pipeline threshold is a constructor parameter with a
// compiled-in default, so the TOML files only need to name the values an
// operator wants to override.
package config

// Application holds general application settings.
type Application struct {
	Name string `toml:"name"`
	// GoogleProjectId receives exported traces and metrics. Empty disables
	// cloud export and the SDK falls back to application-default discovery.
	GoogleProjectId string `toml:"google_project_id"`
}

// Server configures the embedding HTTP server.
type Server struct {
	Port         int    `toml:"port"`
	DatabasePath string `toml:"database_path"` // SQLite file retaining finished analyses.
}

// Upload configures the input boundary: file limits and submission rate.
type Upload struct {
	MaxFileSizeBytes  int64    `toml:"max_file_size_bytes"`
	AllowedExtensions []string `toml:"allowed_extensions"`
	RatePerMinute     int      `toml:"rate_per_minute"` // Analysis submissions admitted per minute.
	Burst             int      `toml:"burst"`
}

// Pipeline configures every tunable constant of the analysis pipeline.
// Units: thresholds on the 0-255 MAD scale, durations in seconds,
// intensities on the 0-100 scale.
type Pipeline struct {
	TargetFPS         float64 `toml:"target_fps"`
	AnalysisWidth     int     `toml:"analysis_width"`
	ThumbnailWidth    int     `toml:"thumbnail_width"`
	SeekFailureBudget int     `toml:"seek_failure_budget"`
	TimeoutSeconds    int     `toml:"timeout_seconds"` // Wall-clock bound for one invocation.

	CutThreshold     float64 `toml:"cut_threshold"`
	MinSceneDuration float64 `toml:"min_scene_duration"`
	IntensityCeiling float64 `toml:"intensity_ceiling"`

	HighActivityThreshold float64 `toml:"high_activity_threshold"`
	NegligibleMotionFloor float64 `toml:"negligible_motion_floor"`
	StaticSceneConfidence float64 `toml:"static_scene_confidence"`
	RecurrenceBonus       float64 `toml:"recurrence_bonus"`

	MinDramaThreshold     float64 `toml:"min_drama_threshold"`
	AbruptChangeThreshold float64 `toml:"abrupt_change_threshold"`
	AbruptStartOffset     float64 `toml:"abrupt_start_offset"`
	MaxMoments            int     `toml:"max_moments"`
}

// Config is the root configuration container.
type Config struct {
	Application Application `toml:"application"`
	Server      Server      `toml:"server"`
	Upload      Upload      `toml:"upload"`
	Pipeline    Pipeline    `toml:"pipeline"`
}

// NewConfig returns a Config populated with the compiled-in defaults. TOML
// loading overlays on top of these, so partial files are fine.
func NewConfig() *Config {
	return &Config{
		Application: Application{Name: "story-intelligence"},
		Server: Server{
			Port:         8080,
			DatabasePath: "story-intelligence.db",
		},
		Upload: Upload{
			MaxFileSizeBytes:  500 << 20,
			AllowedExtensions: []string{"mp4", "mov", "avi", "mkv", "webm"},
			RatePerMinute:     6,
			Burst:             3,
		},
		Pipeline: Pipeline{
			TargetFPS:             1.0,
			AnalysisWidth:         160,
			ThumbnailWidth:        320,
			SeekFailureBudget:     5,
			TimeoutSeconds:        300,
			CutThreshold:          30.0,
			MinSceneDuration:      2.0,
			IntensityCeiling:      50.0,
			HighActivityThreshold: 70.0,
			NegligibleMotionFloor: 10.0,
			StaticSceneConfidence: 30.0,
			RecurrenceBonus:       5.0,
			MinDramaThreshold:     25.0,
			AbruptChangeThreshold: 50.0,
			AbruptStartOffset:     1.5,
			MaxMoments:            30,
		},
	}
}
