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

import (
	"fmt"
	"math"

	"github.com/voxelkit/affiners/hwy"
	"gonum.org/v1/gonum/mat"
)

// Affine is a pull transform from output voxel indices to source
// coordinates: src = M·out + Shift, with every vector ordered (z, y, x).
//
// M may be singular. Such a transform collapses the output onto a plane or
// line of the source and is still resampled normally.
type Affine struct {
	M     [3][3]float64
	Shift [3]float64
}

// NewAffine returns the transform with the given linear part and shift.
func NewAffine(m [3][3]float64, shift [3]float64) Affine {
	return Affine{M: m, Shift: shift}
}

// Identity returns the transform that maps every voxel onto itself.
func Identity() Affine {
	return Affine{M: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Scale returns a diagonal transform.
func Scale(sz, sy, sx float64) Affine {
	return Affine{M: [3][3]float64{{sz, 0, 0}, {0, sy, 0}, {0, 0, sx}}}
}

// Translation returns the identity shifted by (tz, ty, tx).
func Translation(tz, ty, tx float64) Affine {
	a := Identity()
	a.Shift = [3]float64{tz, ty, tx}
	return a
}

// RotateZ rotates about the z axis, mixing y and x.
func RotateZ(angle float64) Affine {
	s, c := math.Sincos(angle)
	return Affine{M: [3][3]float64{{1, 0, 0}, {0, c, -s}, {0, s, c}}}
}

// RotateY rotates about the y axis, mixing z and x.
func RotateY(angle float64) Affine {
	s, c := math.Sincos(angle)
	return Affine{M: [3][3]float64{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}}
}

// RotateX rotates about the x axis, mixing z and y.
func RotateX(angle float64) Affine {
	s, c := math.Sincos(angle)
	return Affine{M: [3][3]float64{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}}
}

// WithShift returns a copy of a with the shift replaced.
func (a Affine) WithShift(tz, ty, tx float64) Affine {
	a.Shift = [3]float64{tz, ty, tx}
	return a
}

// Apply maps an output position to its source position.
func (a Affine) Apply(z, y, x float64) (sz, sy, sx float64) {
	m := &a.M
	sz = m[0][0]*z + m[0][1]*y + m[0][2]*x + a.Shift[0]
	sy = m[1][0]*z + m[1][1]*y + m[1][2]*x + a.Shift[1]
	sx = m[2][0]*z + m[2][1]*y + m[2][2]*x + a.Shift[2]
	return sz, sy, sx
}

// Homogeneous returns the 4x4 matrix [M Shift; 0 0 0 1].
func (a Affine) Homogeneous() *mat.Dense {
	h := mat.NewDense(4, 4, nil)
	for i := range 3 {
		for j := range 3 {
			h.Set(i, j, a.M[i][j])
		}
		h.Set(i, 3, a.Shift[i])
	}
	h.Set(3, 3, 1)
	return h
}

// FromHomogeneous builds an Affine from a 4x4 homogeneous matrix whose
// upper-left 3x3 block is M and whose last column holds the shift. The
// bottom row is not inspected.
func FromHomogeneous(h mat.Matrix) (Affine, error) {
	r, c := h.Dims()
	if r != 4 || c != 4 {
		return Affine{}, contractErr("FromHomogeneous", "matrix", ErrMatrix, "got %dx%d", r, c)
	}
	var a Affine
	for i := range 3 {
		for j := range 3 {
			a.M[i][j] = h.At(i, j)
		}
		a.Shift[i] = h.At(i, 3)
	}
	return a, nil
}

// Compose returns the transform that applies b first and then a, so that
// a.Compose(b).Apply(p) == a.Apply(b.Apply(p)).
func (a Affine) Compose(b Affine) Affine {
	var prod mat.Dense
	prod.Mul(a.Homogeneous(), b.Homogeneous())
	out, _ := FromHomogeneous(&prod)
	return out
}

// Inverse returns the inverse transform. A forward (push) transform can be
// turned into the pull form the resamplers expect this way.
func (a Affine) Inverse() (Affine, error) {
	h := a.Homogeneous()
	if mat.Det(h) == 0 {
		return Affine{}, fmt.Errorf("interp: affine transform is singular")
	}
	var inv mat.Dense
	if err := inv.Inverse(h); err != nil {
		return Affine{}, fmt.Errorf("interp: inverting affine transform: %w", err)
	}
	return FromHomogeneous(&inv)
}

// mapping is an Affine prepared for row-wise evaluation by the kernels.
//
// All backends evaluate coordinates through the methods below so that each
// output voxel gets bit-identical source coordinates, and therefore the same
// in/out of bounds decision, whichever backend runs.
type mapping struct {
	m     [3][3]float64
	shift [3]float64
}

func newMapping(a Affine) mapping {
	return mapping{m: a.M, shift: a.Shift}
}

// axisCoord returns m*o + base with the product rounded separately; the
// conversion stops the compiler from fusing it differently per call site.
func axisCoord(m, o, base float64) float64 {
	return float64(m*o) + base
}

// rowOrigin returns the source coordinates of output voxel (oz, oy, 0).
func (g *mapping) rowOrigin(oz, oy int) (z, y, x float64) {
	fz, fy := float64(oz), float64(oy)
	z = axisCoord(g.m[0][1], fy, axisCoord(g.m[0][0], fz, g.shift[0]))
	y = axisCoord(g.m[1][1], fy, axisCoord(g.m[1][0], fz, g.shift[1]))
	x = axisCoord(g.m[2][1], fy, axisCoord(g.m[2][0], fz, g.shift[2]))
	return z, y, x
}

// lanes returns the source coordinates of output voxels ox0 .. ox0+n-1 in
// the row whose origin is (bz, by, bx), one lane per voxel. Each lane
// rounds like axisCoord.
func (g *mapping) lanes(ox0, n int, bz, by, bx float64) (z, y, x hwy.Vec[float64]) {
	o := hwy.Add(hwy.Iota[float64](n), hwy.Set(n, float64(ox0)))
	return axisLanesCoord(g.m[0][2], o, bz), axisLanesCoord(g.m[1][2], o, by), axisLanesCoord(g.m[2][2], o, bx)
}

func axisLanesCoord(m float64, o hwy.Vec[float64], base float64) hwy.Vec[float64] {
	n := o.NumLanes()
	return hwy.Add(hwy.Mul(hwy.Set(n, m), o), hwy.Set(n, base))
}
