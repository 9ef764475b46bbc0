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

package vision

import (
	"image"

	"github.com/jaycherian/go-story-intelligence/internal/core/model"
)

// The character tracker partitions every frame into a fixed 3x3 grid. The
// cardinality is small and known, so per-cell state lives in plain
// [GridCells] arrays rather than maps.
const (
	GridSize  = 3
	GridCells = GridSize * GridSize

	// CenterCell is the fallback seed position for scenes without a motion
	// signal.
	CenterCell = 4
)

// CellBounds returns the pixel rectangle of the given grid cell (row-major,
// 0-8) within the frame bounds. The last row and column absorb any remainder
// so the cells tile the frame exactly.
func CellBounds(bounds image.Rectangle, cell int) image.Rectangle {
	col := cell % GridSize
	row := cell / GridSize
	cw := bounds.Dx() / GridSize
	ch := bounds.Dy() / GridSize

	min := image.Point{X: bounds.Min.X + col*cw, Y: bounds.Min.Y + row*ch}
	max := image.Point{X: min.X + cw, Y: min.Y + ch}
	if col == GridSize-1 {
		max.X = bounds.Max.X
	}
	if row == GridSize-1 {
		max.Y = bounds.Max.Y
	}
	return image.Rectangle{Min: min, Max: max}
}

// CellRegion returns the fractional screen region of the given grid cell,
// with all coordinates in [0, 1].
func CellRegion(cell int) model.Region {
	col := cell % GridSize
	row := cell / GridSize
	return model.Region{
		X: float64(col) / GridSize,
		Y: float64(row) / GridSize,
		W: 1.0 / GridSize,
		H: 1.0 / GridSize,
	}
}
