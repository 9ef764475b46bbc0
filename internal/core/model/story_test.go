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

package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

func TestSequentialIdentifiers(t *testing.T) {
	assert.Equal(t, "scene_01", model.SceneId(1))
	assert.Equal(t, "scene_12", model.SceneId(12))
	assert.Equal(t, "char_01", model.CharacterId(1))
	assert.Equal(t, "Character 3", model.CharacterLabel(3))
	assert.Equal(t, "moment_30", model.MomentId(30))
}

func TestSceneFrameCount(t *testing.T) {
	s := &model.Scene{StartFrame: 3, EndFrame: 7}
	assert.Equal(t, 5, s.FrameCount())

	single := &model.Scene{StartFrame: 4, EndFrame: 4}
	assert.Equal(t, 1, single.FrameCount())
}
