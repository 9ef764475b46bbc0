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

package vision_test

import (
	"image"
	"testing"

	"github.com/jaycherian/go-story-intelligence/internal/core/vision"
	test "github.com/jaycherian/go-story-intelligence/internal/testutil"
	"github.com/zeebo/assert"
)

func TestFrameDiffIdenticalFrames(t *testing.T) {
	a := test.SolidFrame(160, 90, test.Gray(100))
	b := test.SolidFrame(160, 90, test.Gray(100))
	assert.Equal(t, 0.0, vision.FrameDiff(a, b))
}

func TestFrameDiffUniformBrightnessShift(t *testing.T) {
	// Every sampled channel differs by exactly 50, so the per-sample
	// average is exactly 50 regardless of stride.
	a := test.SolidFrame(160, 90, test.Gray(100))
	b := test.SolidFrame(160, 90, test.Gray(150))
	assert.Equal(t, 50.0, vision.FrameDiff(a, b))
}

func TestRegionDiffIsolatesTheRegion(t *testing.T) {
	a := test.SolidFrame(160, 90, test.Gray(100))
	b := test.SolidFrame(160, 90, test.Gray(100))
	test.FillCell(b, 0, test.Gray(250))

	bounds := a.Bounds()
	assert.Equal(t, 150.0, vision.RegionDiff(a, b, vision.CellBounds(bounds, 0)))
	assert.Equal(t, 0.0, vision.RegionDiff(a, b, vision.CellBounds(bounds, 8)))

	// The full-frame average dilutes the localized change by roughly the
	// cell's share of the area.
	full := vision.FrameDiff(a, b)
	assert.True(t, full > 0)
	assert.True(t, full < 150.0/4)
}

func TestRegionDiffEmptyRegion(t *testing.T) {
	a := test.SolidFrame(16, 16, test.Gray(0))
	b := test.SolidFrame(16, 16, test.Gray(255))
	assert.Equal(t, 0.0, vision.RegionDiff(a, b, image.Rect(4, 4, 4, 4)))
}

func TestCellBoundsTileTheFrame(t *testing.T) {
	// 3x3 cells over awkward dimensions must cover every pixel exactly
	// once, with the last row and column absorbing the remainder.
	bounds := image.Rect(0, 0, 161, 91)
	area := 0
	for cell := 0; cell < vision.GridCells; cell++ {
		r := vision.CellBounds(bounds, cell)
		assert.True(t, r.In(bounds))
		area += r.Dx() * r.Dy()
	}
	assert.Equal(t, bounds.Dx()*bounds.Dy(), area)

	// Cells within a row or column must not overlap.
	assert.Equal(t, vision.CellBounds(bounds, 0).Max.X, vision.CellBounds(bounds, 1).Min.X)
	assert.Equal(t, vision.CellBounds(bounds, 0).Max.Y, vision.CellBounds(bounds, 3).Min.Y)
}

func TestCellRegionFractions(t *testing.T) {
	center := vision.CellRegion(vision.CenterCell)
	assert.Equal(t, 1.0/3, center.X)
	assert.Equal(t, 1.0/3, center.Y)
	assert.Equal(t, 1.0/3, center.W)
	assert.Equal(t, 1.0/3, center.H)

	last := vision.CellRegion(8)
	assert.Equal(t, 2.0/3, last.X)
	assert.Equal(t, 2.0/3, last.Y)
}
