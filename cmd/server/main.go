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
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/go-story-intelligence/internal/core/media"
	"github.com/jaycherian/go-story-intelligence/internal/core/model"
	"github.com/jaycherian/go-story-intelligence/internal/core/services"
	"github.com/jaycherian/go-story-intelligence/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	otelShutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	r.Use(otelgin.Middleware("story-intelligence-server"))

	// Default CORS is permissive, which is what local development needs.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		StoryRouter(apiV1)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Server.Port),
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", config.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed:", "error", err)
	}
	if err := state.store.Close(); err != nil {
		slog.Error("Store Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// StoryRouter sets up the routes for submitting videos and retrieving
// analyses.
func StoryRouter(r *gin.RouterGroup) {
	stories := r.Group("/stories")
	{
		// Accepts one video upload and starts a background analysis. The
		// upload is validated synchronously so a rejected file answers 400
		// before any work is queued.
		stories.POST("", func(c *gin.Context) {
			file, err := c.FormFile("file")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("get form err: %s", err.Error())})
				return
			}

			localPath := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(file.Filename))
			if err := c.SaveUploadedFile(file, localPath); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("upload file err: %s", err.Error())})
				return
			}

			source := &model.VideoSource{
				Path:         localPath,
				FileName:     file.Filename,
				DeclaredMIME: file.Header.Get("Content-Type"),
				SizeBytes:    file.Size,
			}

			if err := state.validator.Validate(source); err != nil {
				if rmErr := os.Remove(localPath); rmErr != nil {
					slog.Warn("failed to remove rejected upload", "path", localPath, "error", rmErr)
				}
				var validationErr *media.ValidationError
				if errors.As(err, &validationErr) {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}

			id, err := state.storyService.Submit(source)
			if err != nil {
				if rmErr := os.Remove(localPath); rmErr != nil {
					slog.Warn("failed to remove unqueued upload", "path", localPath, "error", rmErr)
				}
				if errors.Is(err, services.ErrRateLimited) {
					c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}

			c.JSON(http.StatusAccepted, gin.H{"id": id})
		})

		stories.GET("", func(c *gin.Context) {
			out, err := state.storyService.ListAnalyses(c)
			if err != nil {
				slog.Error("failed to list analyses", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		stories.GET("/:id", func(c *gin.Context) {
			id := c.Param("id")
			out, err := state.storyService.GetAnalysis(c, id)
			if err != nil {
				if errors.Is(err, services.ErrAnalysisNotFound) {
					c.Status(http.StatusNotFound)
					return
				}
				slog.Error("failed to load analysis", "id", id, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		stories.GET("/:id/progress", func(c *gin.Context) {
			id := c.Param("id")
			status, err := state.storyService.Status(id)
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, status)
		})
	}
}
