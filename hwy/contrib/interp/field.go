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
)

// DisplacementField is a dense float32 vector field of shape
// (channels, depth, height, width). Channels 0, 1 and 2 hold the z, y and x
// displacement in output voxel units; further channels are carried along
// (and upsampled) but never read by the warp.
type DisplacementField struct {
	data     []float32
	channels int
	depth    int
	height   int
	width    int
	planeSz  int
	chanSz   int
}

// NewDisplacementField allocates a zero field. It panics if channels < 3 or
// a spatial dimension is not positive.
func NewDisplacementField(channels, depth, height, width int) *DisplacementField {
	f, err := newField("NewDisplacementField", nil, channels, depth, height, width)
	if err != nil {
		panic(err)
	}
	return f
}

// DisplacementFieldFromSlice wraps data without copying.
func DisplacementFieldFromSlice(data []float32, channels, depth, height, width int) (*DisplacementField, error) {
	if data == nil {
		data = []float32{}
	}
	return newField("DisplacementFieldFromSlice", data, channels, depth, height, width)
}

func newField(op string, data []float32, channels, depth, height, width int) (*DisplacementField, error) {
	if channels < 3 {
		return nil, contractErr(op, "channels", ErrChannels, "got %d", channels)
	}
	if err := checkShape(op, "shape", depth, height, width); err != nil {
		return nil, err
	}
	n := channels * depth * height * width
	switch {
	case data == nil:
		data = make([]float32, n)
	case len(data) != n:
		return nil, contractErr(op, "data", ErrLength,
			"len %d for shape (%d, %d, %d, %d)", len(data), channels, depth, height, width)
	}
	return &DisplacementField{
		data:     data,
		channels: channels,
		depth:    depth,
		height:   height,
		width:    width,
		planeSz:  height * width,
		chanSz:   depth * height * width,
	}, nil
}

// Shape returns (channels, depth, height, width).
func (f *DisplacementField) Shape() (channels, depth, height, width int) {
	return f.channels, f.depth, f.height, f.width
}

// Channels returns the number of channels.
func (f *DisplacementField) Channels() int { return f.channels }

// Data returns the backing slice.
func (f *DisplacementField) Data() []float32 { return f.data }

// Channel returns the elements of channel c.
func (f *DisplacementField) Channel(c int) []float32 {
	start := c * f.chanSz
	return f.data[start : start+f.chanSz : start+f.chanSz]
}

// At returns the value of channel c at (z, y, x).
func (f *DisplacementField) At(c, z, y, x int) float32 {
	return f.data[f.index(c, z, y, x)]
}

// Set stores v in channel c at (z, y, x).
func (f *DisplacementField) Set(c, z, y, x int, v float32) {
	f.data[f.index(c, z, y, x)] = v
}

func (f *DisplacementField) index(c, z, y, x int) int {
	if uint(c) >= uint(f.channels) || uint(z) >= uint(f.depth) ||
		uint(y) >= uint(f.height) || uint(x) >= uint(f.width) {
		panic(fmt.Sprintf("interp: index (%d, %d, %d, %d) out of range for field (%d, %d, %d, %d)",
			c, z, y, x, f.channels, f.depth, f.height, f.width))
	}
	return c*f.chanSz + z*f.planeSz + y*f.width + x
}

// clampedCorner locates c on an axis after clamping it to [0, size-1], the
// edge-replicating policy used for fields.
func clampedCorner(c float64, size int) (i0, i1 int, f float64) {
	if !(c > 0) {
		c = 0
	}
	if top := float64(size - 1); c > top {
		c = top
	}
	fl := math.Floor(c)
	i0 = int(fl)
	return i0, min(i0+1, size-1), c - fl
}

// cellWeights holds the eight neighbour offsets within one channel and
// their trilinear weights.
type cellWeights struct {
	off [8]int
	w   [8]float64
}

func (f *DisplacementField) cell(z0, z1, y0, y1, x0, x1 int, fz, fy, fx float64) cellWeights {
	var cw cellWeights
	zs, ys, xs := [2]int{z0, z1}, [2]int{y0, y1}, [2]int{x0, x1}
	wz, wy, wx := [2]float64{1 - fz, fz}, [2]float64{1 - fy, fy}, [2]float64{1 - fx, fx}
	for i := range 8 {
		a, b, c := i>>2, i>>1&1, i&1
		cw.off[i] = zs[a]*f.planeSz + ys[b]*f.width + xs[c]
		cw.w[i] = float64(wz[a]*wy[b]) * wx[c]
	}
	return cw
}

// blend returns the weighted sum of the cell in channel ch. The explicit
// conversions keep the rounding fixed regardless of inlining.
func (cw *cellWeights) blend(ch []float32) float64 {
	var s float64
	for i := range 8 {
		s += float64(float64(ch[cw.off[i]]) * cw.w[i])
	}
	return s
}

// sample returns the displacement at field coordinates (z, y, x) with
// clamped trilinear interpolation.
func (f *DisplacementField) sample(z, y, x float64) (dz, dy, dx float64) {
	z0, z1, fz := clampedCorner(z, f.depth)
	y0, y1, fy := clampedCorner(y, f.height)
	x0, x1, fx := clampedCorner(x, f.width)
	cw := f.cell(z0, z1, y0, y1, x0, x1, fz, fy, fx)
	return cw.blend(f.Channel(0)), cw.blend(f.Channel(1)), cw.blend(f.Channel(2))
}
