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

// Package services contains the business logic between the HTTP surface and
// the analysis pipeline: the durable analysis store and the in-process job
// registry.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// ErrAnalysisNotFound is returned when no stored analysis matches the id.
var ErrAnalysisNotFound = errors.New("analysis not found")

const analysisSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	file_name  TEXT NOT NULL,
	created_at TEXT NOT NULL,
	document   TEXT NOT NULL
);`

// AnalysisStore persists finished analyses in a local SQLite database. The
// whole StoryAnalysis is stored as one JSON document: results are written
// once, read whole, and never updated, so a document column beats a
// normalized schema here.
type AnalysisStore struct {
	conn *sql.DB
}

// AnalysisSummary is the listing row: everything about a stored analysis
// except the document itself.
type AnalysisSummary struct {
	Id        string    `json:"id"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAnalysisStore opens (creating if needed) the SQLite database at the
// given path.
func NewAnalysisStore(dbPath string) (*AnalysisStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite is happiest with a single writer connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(analysisSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &AnalysisStore{conn: conn}, nil
}

// Close releases the database connection.
func (s *AnalysisStore) Close() error {
	return s.conn.Close()
}

// Save persists one finished analysis under the given id.
func (s *AnalysisStore) Save(ctx context.Context, id string, fileName string, analysis *model.StoryAnalysis) error {
	document, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		"INSERT INTO analyses (id, file_name, created_at, document) VALUES (?, ?, ?, ?)",
		id, fileName, time.Now().UTC().Format(time.RFC3339), string(document))
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Get loads a stored analysis by id.
func (s *AnalysisStore) Get(ctx context.Context, id string) (*model.StoryAnalysis, error) {
	var document string
	err := s.conn.QueryRowContext(ctx, "SELECT document FROM analyses WHERE id = ?", id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	analysis := &model.StoryAnalysis{}
	if err := json.Unmarshal([]byte(document), analysis); err != nil {
		return nil, fmt.Errorf("failed to deserialize analysis: %w", err)
	}
	return analysis, nil
}

// List returns summaries of all stored analyses, newest first.
func (s *AnalysisStore) List(ctx context.Context) ([]*AnalysisSummary, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT id, file_name, created_at FROM analyses ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]*AnalysisSummary, 0)
	for rows.Next() {
		var summary AnalysisSummary
		var createdAt string
		if err := rows.Scan(&summary.Id, &summary.FileName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		summary.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		summaries = append(summaries, &summary)
	}
	return summaries, rows.Err()
}
