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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// DefaultMaxFileSizeBytes caps uploads at 500 MiB.
const DefaultMaxFileSizeBytes = int64(500 << 20)

// sniffLength is how many leading bytes the content sniffer needs. The
// filetype matchers only look at the file header.
const sniffLength = 262

// DefaultAllowedExtensions lists the accepted container formats.
var DefaultAllowedExtensions = []string{"mp4", "mov", "avi", "mkv", "webm"}

// Validator enforces the upload preconditions. Every check runs before any
// decoder is touched, so a rejected file never costs a decode call.
type Validator struct {
	maxBytes int64
	allowed  map[string]struct{}
}

// NewValidator builds a Validator. Non-positive maxBytes and an empty
// extension list fall back to the defaults.
func NewValidator(maxBytes int64, extensions []string) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSizeBytes
	}
	if len(extensions) == 0 {
		extensions = DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Validator{maxBytes: maxBytes, allowed: allowed}
}

// Validate checks the declared size, extension, and MIME type, then sniffs
// the file header to confirm the content is actually video. Any violation
// returns a *ValidationError.
func (v *Validator) Validate(src *model.VideoSource) error {
	if src.SizeBytes > v.maxBytes {
		return &ValidationError{Reason: fmt.Sprintf("file size %d exceeds the %d byte limit", src.SizeBytes, v.maxBytes)}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(src.FileName), "."))
	if _, ok := v.allowed[ext]; !ok {
		return &ValidationError{Reason: fmt.Sprintf("extension %q is not an accepted video container", ext)}
	}

	if src.DeclaredMIME != "" && !strings.HasPrefix(src.DeclaredMIME, "video/") && src.DeclaredMIME != "application/octet-stream" {
		return &ValidationError{Reason: fmt.Sprintf("declared content type %q is not video", src.DeclaredMIME)}
	}

	// Declared values passed; confirm with the file header. An upload whose
	// header the matchers cannot classify is rejected rather than handed to
	// the decoder.
	head := make([]byte, sniffLength)
	f, err := os.Open(src.Path)
	if err != nil {
		return &ValidationError{Reason: fmt.Sprintf("unable to read upload: %v", err)}
	}
	defer f.Close()
	n, _ := f.Read(head)
	if !filetype.IsVideo(head[:n]) {
		return &ValidationError{Reason: "file content does not match a known video format"}
	}
	return nil
}
