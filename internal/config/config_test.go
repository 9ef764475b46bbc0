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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-story-intelligence/internal/config"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, "story-intelligence", cfg.Application.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(500<<20), cfg.Upload.MaxFileSizeBytes)
	assert.Contains(t, cfg.Upload.AllowedExtensions, "mp4")

	assert.Equal(t, 1.0, cfg.Pipeline.TargetFPS)
	assert.Equal(t, 30.0, cfg.Pipeline.CutThreshold)
	assert.Equal(t, 2.0, cfg.Pipeline.MinSceneDuration)
	assert.Equal(t, 30, cfg.Pipeline.MaxMoments)
}

func TestLoadConfigOverlaysFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env.toml")
	env := filepath.Join(dir, ".env.custom.toml")

	require.NoError(t, os.WriteFile(base, []byte(`
[server]
port = 9000

[pipeline]
cut_threshold = 35.0
`), 0644))
	require.NoError(t, os.WriteFile(env, []byte(`
[server]
port = 9999
`), 0644))

	t.Setenv(config.EnvConfigFilePrefix, dir)
	t.Setenv(config.EnvConfigRuntime, "custom")

	cfg := config.NewConfig()
	require.NoError(t, config.LoadConfig(cfg))

	// The environment file wins over the base file, the base file wins
	// over the defaults, and unnamed values keep their defaults.
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 35.0, cfg.Pipeline.CutThreshold)
	assert.Equal(t, 2.0, cfg.Pipeline.MinSceneDuration)
	assert.Equal(t, "story-intelligence", cfg.Application.Name)
}

func TestLoadConfigMissingFilesIsFine(t *testing.T) {
	t.Setenv(config.EnvConfigFilePrefix, t.TempDir())
	t.Setenv(config.EnvConfigRuntime, "nonexistent")

	cfg := config.NewConfig()
	require.NoError(t, config.LoadConfig(cfg))
	assert.Equal(t, 8080, cfg.Server.Port)
}
