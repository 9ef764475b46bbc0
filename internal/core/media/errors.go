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

// Package media handles the input side of the pipeline: upload validation,
// container probing, per-timestamp frame decoding, and the lazy sampling
// sequence. This file defines the error taxonomy. Validation errors are
// raised before any decoding starts and are recoverable by re-uploading;
// decode and seek errors are fatal for the current run and abort the whole
// pipeline with no partial result. The analysis stages downstream of this
// package define no errors at all: they degrade to empty-but-valid outputs.
package media

import "fmt"

// ValidationError reports an input file rejected before processing began
// (size, extension, or content type). The message is suitable for direct
// display to the uploader.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid video input: %s", e.Reason)
}

// DecodeError reports a decoder-level failure (unsupported container or
// codec, probe failure). Fatal for the current run.
type DecodeError struct {
	Op  string // The decoder operation that failed ("probe", "decode").
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("video decode failed during %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SeekError reports that per-frame seek failures exceeded the sampler's
// bounded retry budget. Fatal for the current run.
type SeekError struct {
	Timestamp float64 // The sampling instant that exhausted the budget.
	Failures  int     // Total failed instants, including this one.
	Err       error
}

func (e *SeekError) Error() string {
	return fmt.Sprintf("seek retry budget exhausted after %d failed instants (last at %.3fs): %v", e.Failures, e.Timestamp, e.Err)
}

func (e *SeekError) Unwrap() error { return e.Err }
