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

package interp

import "github.com/voxelkit/affiners/hwy/contrib/workerpool"

// UpsampleField2x doubles every spatial dimension of f. Output index o on an
// axis of n inputs maps to o*(n-1)/(2n-1), so the corner samples of input
// and output coincide exactly. Every channel is interpolated, with edge
// clamping.
func UpsampleField2x(f *DisplacementField, opts ...Option) *DisplacementField {
	const op = "UpsampleField2x"
	mustHaveField(op, f)
	return upsampleField(f, newCallOptions(op, opts).executor())
}

func upsampleField(f *DisplacementField, pool *workerpool.Pool) *DisplacementField {
	out := NewDisplacementField(f.channels, 2*f.depth, 2*f.height, 2*f.width)
	pool.ForEach(f.channels*out.depth, func(task int) {
		c, oz := task/out.depth, task%out.depth
		src, dst := f.Channel(c), out.Channel(c)
		z0, z1, fz := alignCorners(oz, f.depth, out.depth)
		for oy := range out.height {
			y0, y1, fy := alignCorners(oy, f.height, out.height)
			row := dst[oz*out.planeSz+oy*out.width:]
			for ox := range out.width {
				x0, x1, fx := alignCorners(ox, f.width, out.width)
				cw := f.cell(z0, z1, y0, y1, x0, x1, fz, fy, fx)
				row[ox] = float32(cw.blend(src))
			}
		}
	})
	return out
}

// alignCorners maps output index o of an axis with out samples onto an
// axis with in samples, first and last samples aligned. The product is
// formed in integers so the last output lands exactly on in-1.
func alignCorners(o, in, out int) (i0, i1 int, f float64) {
	if out <= 1 {
		return 0, 0, 0
	}
	return clampedCorner(float64(o*(in-1))/float64(out-1), in)
}

func mustHaveField(op string, f *DisplacementField) {
	if f == nil || f.channels < 3 || len(f.data) != f.channels*f.chanSz {
		panic(contractErr(op, "field", ErrChannels, "field is nil or has fewer than 3 channels"))
	}
}
