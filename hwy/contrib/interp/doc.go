// Copyright 2025 The affiners Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package interp resamples dense 3D volumes with trilinear interpolation.
//
// Two transforms are supported. An affine pull transform maps every output
// voxel to a source position (src = M·out + shift, axes ordered z, y, x).
// A displacement field gives a per-voxel offset that is subtracted from the
// output position. In both cases the eight neighbours of the source position
// are blended with trilinear weights.
//
// # Bounds
//
// A source position is valid when the floor of each coordinate lies in
// [0, size). The upper neighbour is clamped to size-1, so positions in the
// last half voxel of an axis still interpolate. Invalid positions produce
// the constant fill value (cval).
//
// # Precisions
//
// Volumes are stored as float32, float64, hwy.Float16 or uint8. float64 is
// interpolated in float64, everything else in float32. Half-float results are
// rounded to nearest even; uint8 results are rounded and clamped to [0, 255].
//
// # Backends
//
// Every operation runs on one of three backends: the scalar reference, Tier A
// (AVX2+FMA or NEON) and Tier B (AVX-512F or SVE). Tier kernels process lane
// batches of adjacent voxels and agree with the scalar kernel to within the
// rounding of the storage type, with identical fill positions. The backend
// is chosen per call from the host capabilities detected once per process:
//
//	out := interp.AffineTransform(vol, interp.RotateZ(0.3), 0)
//	ref := interp.AffineTransform(vol, interp.RotateZ(0.3), 0,
//		interp.WithMode(interp.ModeScalarOnly))
//
// Work is split into one task per output z-plane and scheduled on a
// persistent worker pool. WithSequential runs the same planes in order on
// the calling goroutine and produces identical output.
package interp
