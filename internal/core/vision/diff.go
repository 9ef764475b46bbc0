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

// Package vision implements the deterministic pixel-difference heuristics
// behind scene segmentation, character tracking, and key-moment detection.
// There is no trained-model inference anywhere in this package: every signal
// is derived from mean absolute difference (MAD) between analysis-resolution
// frames. The detectors are exposed behind small interfaces so a trained
// backend can be substituted later without touching pipeline orchestration.
package vision

import "image"

// SampleStride is the coarse pixel stride used for all difference
// computation: every SampleStride-th pixel in each axis is sampled. The
// stride keeps the math cheap and, because the result is a per-sample
// average, does not change the 0-255 scale of the scores.
const SampleStride = 4

// FrameDiff computes the mean absolute difference between two frames over
// their full bounds. The result is a per-sample average across the R, G, and
// B channels on a 0-255 scale. Frames of mismatched bounds are compared over
// the intersection.
func FrameDiff(a, b *image.RGBA) float64 {
	return RegionDiff(a, b, a.Bounds().Intersect(b.Bounds()))
}

// RegionDiff computes the mean absolute difference between two frames
// restricted to the given pixel rectangle. The accumulated per-channel
// absolute differences are divided by the number of sampled channel values,
// not by the region's pixel count, so the score stays comparable regardless
// of stride or region size. An empty region scores zero.
func RegionDiff(a, b *image.RGBA, region image.Rectangle) float64 {
	var total int64
	var samples int64
	for y := region.Min.Y; y < region.Max.Y; y += SampleStride {
		for x := region.Min.X; x < region.Max.X; x += SampleStride {
			pa := a.RGBAAt(x, y)
			pb := b.RGBAAt(x, y)
			total += absDiff(pa.R, pb.R) + absDiff(pa.G, pb.G) + absDiff(pa.B, pb.B)
			samples += 3
		}
	}
	if samples == 0 {
		return 0
	}
	return float64(total) / float64(samples)
}

// absDiff is a signed-magnitude absolute difference of two channel values.
func absDiff(a, b uint8) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		return -d
	}
	return d
}
