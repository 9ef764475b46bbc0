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

package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jaycherian/go-story-intelligence/internal/config"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
	"github.com/jaycherian/go-story-intelligence/internal/core/workflow"
)

// Service-level errors surfaced to the HTTP layer.
var (
	ErrRateLimited = errors.New("too many analysis submissions")
	ErrJobNotFound = errors.New("analysis job not found")
)

// JobState enumerates the lifecycle of one analysis submission.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// JobStatus is a point-in-time snapshot of one submission, safe to hand to
// the HTTP layer.
type JobStatus struct {
	Id        string         `json:"id"`
	FileName  string         `json:"file_name"`
	State     JobState       `json:"state"`
	Progress  model.Progress `json:"progress"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type job struct {
	mu     sync.Mutex
	status JobStatus
}

func (j *job) snapshot() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *job) update(fn func(*JobStatus)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.status)
}

// StoryService owns analysis submissions: it admits them under a rate limit,
// runs the pipeline in the background with a configured timeout, tracks
// per-job progress, and persists finished analyses to the store.
type StoryService struct {
	workflow *workflow.StoryIntelligenceWorkflow
	store    *AnalysisStore
	limiter  *rate.Limiter
	timeout  time.Duration

	mu   sync.RWMutex
	jobs map[string]*job
}

// NewStoryService wires the service from the application configuration.
func NewStoryService(cfg *config.Config, wf *workflow.StoryIntelligenceWorkflow, store *AnalysisStore) *StoryService {
	return &StoryService{
		workflow: wf,
		store:    store,
		limiter:  rate.NewLimiter(rate.Limit(float64(cfg.Upload.RatePerMinute)/60.0), cfg.Upload.Burst),
		timeout:  time.Duration(cfg.Pipeline.TimeoutSeconds) * time.Second,
		jobs:     make(map[string]*job),
	}
}

// Submit admits one uploaded video for analysis and returns the job id. The
// uploaded file at source.Path is owned by the service from this point on and
// is removed when the job finishes either way.
func (s *StoryService) Submit(source *model.VideoSource) (string, error) {
	if !s.limiter.Allow() {
		return "", ErrRateLimited
	}

	id := uuid.NewString()
	j := &job{status: JobStatus{
		Id:        id,
		FileName:  source.FileName,
		State:     JobQueued,
		Progress:  model.Progress{Stage: model.StageSamplingFrames, Percent: 0, Message: "queued"},
		CreatedAt: time.Now(),
	}}

	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()

	go s.run(j, source)
	return id, nil
}

// run executes the pipeline for one submission in the background.
func (s *StoryService) run(j *job, source *model.VideoSource) {
	defer func() {
		if err := os.Remove(source.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove uploaded file", "path", source.Path, "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	j.update(func(st *JobStatus) { st.State = JobRunning })

	progress := func(p model.Progress) {
		j.update(func(st *JobStatus) { st.Progress = p })
	}

	analysis, err := s.workflow.Analyze(ctx, source, progress)
	if err != nil {
		slog.Error("analysis failed", "job", j.snapshot().Id, "file", source.FileName, "error", err)
		j.update(func(st *JobStatus) {
			st.State = JobFailed
			st.Error = err.Error()
		})
		return
	}

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer saveCancel()
	if err := s.store.Save(saveCtx, j.snapshot().Id, source.FileName, analysis); err != nil {
		slog.Error("failed to persist analysis", "job", j.snapshot().Id, "error", err)
		j.update(func(st *JobStatus) {
			st.State = JobFailed
			st.Error = err.Error()
		})
		return
	}

	j.update(func(st *JobStatus) {
		st.State = JobDone
		st.Progress = model.Progress{Stage: model.StageDone, Percent: 100, Message: "analysis complete"}
	})
}

// Status returns the current snapshot of one submission.
func (s *StoryService) Status(id string) (JobStatus, error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return JobStatus{}, ErrJobNotFound
	}
	return j.snapshot(), nil
}

// GetAnalysis loads a finished analysis from the store.
func (s *StoryService) GetAnalysis(ctx context.Context, id string) (*model.StoryAnalysis, error) {
	return s.store.Get(ctx, id)
}

// ListAnalyses returns summaries of all stored analyses.
func (s *StoryService) ListAnalyses(ctx context.Context) ([]*AnalysisSummary, error) {
	return s.store.List(ctx)
}
