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

import "github.com/voxelkit/affiners/hwy"

// snapEpsilon is the distance below zero within which a warped source
// coordinate is treated as exactly 0. Displacements that should cancel the
// output position often land a few ulps negative, which would otherwise
// floor to -1 and drop the first sample of an axis.
const snapEpsilon = 1e-5

// warpCoords maps output voxels through a displacement field.
type warpCoords struct {
	field *DisplacementField

	// scale converts output indices to field indices per axis:
	// fieldSize / imageSize.
	scale [3]float64
}

func newWarpCoords(field *DisplacementField, depth, height, width int) *warpCoords {
	return &warpCoords{
		field: field,
		scale: [3]float64{
			float64(field.depth) / float64(depth),
			float64(field.height) / float64(height),
			float64(field.width) / float64(width),
		},
	}
}

func (w *warpCoords) coords(oz, oy, ox0, n int, lc *laneCoords) {
	fz := float64(float64(oz)*w.scale[0]) - 0.5
	fy := float64(float64(oy)*w.scale[1]) - 0.5
	var z, y, x [hwy.MaxVecLanes]float64
	for l := range n {
		ox := ox0 + l
		fx := float64(float64(ox)*w.scale[2]) - 0.5
		dz, dy, dx := w.field.sample(fz, fy, fx)
		z[l] = snapNearZero(float64(oz) - dz)
		y[l] = snapNearZero(float64(oy) - dy)
		x[l] = snapNearZero(float64(ox) - dx)
	}
	lc.z, lc.y, lc.x = hwy.Load(z[:n]), hwy.Load(y[:n]), hwy.Load(x[:n])
}

func snapNearZero(c float64) float64 {
	if c > -snapEpsilon && c < 0 {
		return 0
	}
	return c
}

// ApplyWarp resamples img through a displacement field: each output voxel
// o reads img at o - field(o), where the field is interpolated at
// o*(fieldSize/imageSize) - 0.5 with clamping. The field may be smaller or
// larger than img. With upsample set, the field is first doubled with
// UpsampleField2x. Positions outside img yield cval.
func ApplyWarp[T Storage](img *Volume[T], field *DisplacementField, cval T, upsample bool, opts ...Option) *Volume[T] {
	const op = "ApplyWarp"
	mustHaveVolume(op, "image", img)
	out := NewVolume[T](img.depth, img.height, img.width)
	applyWarp(op, img, field, out, cval, upsample, opts)
	return out
}

// ApplyWarpInto is ApplyWarp writing into out, which must have the shape of
// img and must not share memory with it.
func ApplyWarpInto[T Storage](img *Volume[T], field *DisplacementField, out *Volume[T], cval T, upsample bool, opts ...Option) {
	const op = "ApplyWarpInto"
	mustHaveVolume(op, "image", img)
	mustHaveVolume(op, "output", out)
	if !SameShape(img, out) {
		panic(contractErr(op, "output", ErrLength, "shape (%d, %d, %d) differs from image (%d, %d, %d)",
			out.depth, out.height, out.width, img.depth, img.height, img.width))
	}
	mustNotAlias(op, img.data, out.data)
	applyWarp(op, img, field, out, cval, upsample, opts)
}

func applyWarp[T Storage](op string, img *Volume[T], field *DisplacementField, out *Volume[T], cval T, upsample bool, opts []Option) {
	mustHaveField(op, field)
	o := newCallOptions(op, opts)
	if upsample {
		field = upsampleField(field, o.executor())
	}
	pl := o.plan(op, PrecisionOf[T]())
	k := kernelsFor[T]()
	cs := newWarpCoords(field, img.depth, img.height, img.width)
	pl.run(out.depth, func(z int, pc planeCall) {
		fillPlane(out, z, cval)
		k.resamplePlane(img, out, cs, cval, z, pc)
	})
}
