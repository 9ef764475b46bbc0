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

package main

import (
	"context"
	"log"
	"os"

	"github.com/jaycherian/go-story-intelligence/internal/config"
	"github.com/jaycherian/go-story-intelligence/internal/core/media"
	"github.com/jaycherian/go-story-intelligence/internal/core/services"
	"github.com/jaycherian/go-story-intelligence/internal/core/workflow"
)

type StateManager struct {
	config       *config.Config
	validator    *media.Validator
	store        *services.AnalysisStore
	storyService *services.StoryService
}

var state = &StateManager{}

func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(config.EnvConfigRuntime, "local")
	return err
}

func GetConfig() *config.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		cfg := config.NewConfig()
		if err := config.LoadConfig(cfg); err != nil {
			log.Fatalf("failed to load config: %v\n", err)
		}
		state.config = cfg
	}
	return state.config
}

func InitState(_ context.Context) {
	cfg := GetConfig()

	state.validator = media.NewValidator(cfg.Upload.MaxFileSizeBytes, cfg.Upload.AllowedExtensions)

	store, err := services.NewAnalysisStore(cfg.Server.DatabasePath)
	if err != nil {
		panic(err)
	}
	state.store = store

	wf := workflow.NewStoryIntelligenceWorkflow(cfg, workflow.NewFFmpegDecoderFactory())
	state.storyService = services.NewStoryService(cfg, wf, store)
}
