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

// affineCoords maps output voxels through an affine transform.
type affineCoords struct {
	geo mapping
}

func (a *affineCoords) coords(oz, oy, ox0, n int, lc *laneCoords) {
	bz, by, bx := a.geo.rowOrigin(oz, oy)
	lc.z, lc.y, lc.x = a.geo.lanes(ox0, n, bz, by, bx)
}

// AffineTransform resamples in through the pull transform a into a new
// volume of the same shape. Output voxels whose source lies outside in are
// set to cval.
func AffineTransform[T Storage](in *Volume[T], a Affine, cval T, opts ...Option) *Volume[T] {
	const op = "AffineTransform"
	mustHaveVolume(op, "input", in)
	out := NewVolume[T](in.depth, in.height, in.width)
	affineInto(op, in, out, a, cval, opts)
	return out
}

// AffineTransformShape is AffineTransform with an explicit output shape.
// The transform maps output indices, so the output may be smaller or larger
// than the input.
func AffineTransformShape[T Storage](in *Volume[T], a Affine, depth, height, width int, cval T, opts ...Option) *Volume[T] {
	const op = "AffineTransformShape"
	mustHaveVolume(op, "input", in)
	if err := checkShape(op, "outputShape", depth, height, width); err != nil {
		panic(err)
	}
	out := NewVolume[T](depth, height, width)
	affineInto(op, in, out, a, cval, opts)
	return out
}

// AffineTransformInto writes the result into out, whose shape defines the
// output shape. out must not share memory with in.
func AffineTransformInto[T Storage](in, out *Volume[T], a Affine, cval T, opts ...Option) {
	const op = "AffineTransformInto"
	mustHaveVolume(op, "input", in)
	mustHaveVolume(op, "output", out)
	mustNotAlias(op, in.data, out.data)
	affineInto(op, in, out, a, cval, opts)
}

func affineInto[T Storage](op string, in, out *Volume[T], a Affine, cval T, opts []Option) {
	pl := newCallOptions(op, opts).plan(op, PrecisionOf[T]())
	k := kernelsFor[T]()
	cs := &affineCoords{geo: newMapping(a)}
	pl.run(out.depth, func(z int, pc planeCall) {
		fillPlane(out, z, cval)
		k.resamplePlane(in, out, cs, cval, z, pc)
	})
}

// fillPlane pre-initialises plane z with cval before a kernel writes it.
func fillPlane[T Storage](v *Volume[T], z int, cval T) {
	plane := v.Plane(z)
	for i := range plane {
		plane[i] = cval
	}
}

func mustHaveVolume[T Storage](op, arg string, v *Volume[T]) {
	if v == nil || len(v.data) == 0 || len(v.data) != v.depth*v.height*v.width {
		panic(contractErr(op, arg, ErrLength, "volume is nil or inconsistent with its shape"))
	}
}
