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

	"github.com/voxelkit/affiners/hwy"
)

// Volume is a dense 3D array stored contiguously in z, y, x order.
// Unlike padded image rows, the rows of a Volume are packed: element
// (z, y, x) lives at index (z*h + y)*w + x.
type Volume[T Storage] struct {
	data    []T
	depth   int
	height  int
	width   int
	planeSz int
}

// NewVolume allocates a zeroed volume. It panics if any dimension is not
// positive.
func NewVolume[T Storage](depth, height, width int) *Volume[T] {
	if err := checkShape("NewVolume", "shape", depth, height, width); err != nil {
		panic(err)
	}
	return &Volume[T]{
		data:    make([]T, depth*height*width),
		depth:   depth,
		height:  height,
		width:   width,
		planeSz: height * width,
	}
}

// NewVolumeFilled allocates a volume with every element set to v.
func NewVolumeFilled[T Storage](depth, height, width int, v T) *Volume[T] {
	vol := NewVolume[T](depth, height, width)
	vol.Fill(v)
	return vol
}

// VolumeFromSlice wraps data without copying. The slice length must equal
// depth*height*width.
func VolumeFromSlice[T Storage](data []T, depth, height, width int) (*Volume[T], error) {
	if err := checkShape("VolumeFromSlice", "shape", depth, height, width); err != nil {
		return nil, err
	}
	if len(data) != depth*height*width {
		return nil, contractErr("VolumeFromSlice", "data", ErrLength,
			"len %d for shape (%d, %d, %d)", len(data), depth, height, width)
	}
	return &Volume[T]{
		data:    data,
		depth:   depth,
		height:  height,
		width:   width,
		planeSz: height * width,
	}, nil
}

// Float16VolumeFromBits wraps a buffer of raw binary16 bit patterns, as
// produced by numpy float16 arrays or image files, as a half-float volume.
// The volume shares memory with bits.
func Float16VolumeFromBits(bits []uint16, depth, height, width int) (*Volume[hwy.Float16], error) {
	return VolumeFromSlice(hwy.Float16View(bits), depth, height, width)
}

// Float16VolumeBits returns the backing buffer of a half-float volume as raw
// binary16 bit patterns, without copying.
func Float16VolumeBits(v *Volume[hwy.Float16]) []uint16 {
	return hwy.Float16Bits(v.data)
}

// Shape returns (depth, height, width).
func (v *Volume[T]) Shape() (depth, height, width int) {
	return v.depth, v.height, v.width
}

func (v *Volume[T]) Depth() int  { return v.depth }
func (v *Volume[T]) Height() int { return v.height }
func (v *Volume[T]) Width() int  { return v.width }

// Len returns the number of elements.
func (v *Volume[T]) Len() int { return len(v.data) }

// Data returns the backing slice.
func (v *Volume[T]) Data() []T { return v.data }

// At returns the element at (z, y, x). Out-of-range indices panic.
func (v *Volume[T]) At(z, y, x int) T {
	return v.data[v.index(z, y, x)]
}

// Set stores value at (z, y, x). Out-of-range indices panic.
func (v *Volume[T]) Set(z, y, x int, value T) {
	v.data[v.index(z, y, x)] = value
}

func (v *Volume[T]) index(z, y, x int) int {
	if uint(z) >= uint(v.depth) || uint(y) >= uint(v.height) || uint(x) >= uint(v.width) {
		panic(fmt.Sprintf("interp: index (%d, %d, %d) out of range for shape (%d, %d, %d)",
			z, y, x, v.depth, v.height, v.width))
	}
	return z*v.planeSz + y*v.width + x
}

// Plane returns the elements of plane z.
func (v *Volume[T]) Plane(z int) []T {
	start := z * v.planeSz
	return v.data[start : start+v.planeSz : start+v.planeSz]
}

// Row returns the elements of row (z, y).
func (v *Volume[T]) Row(z, y int) []T {
	start := z*v.planeSz + y*v.width
	return v.data[start : start+v.width : start+v.width]
}

// Fill sets every element to value.
func (v *Volume[T]) Fill(value T) {
	for i := range v.data {
		v.data[i] = value
	}
}

// Clone returns a deep copy.
func (v *Volume[T]) Clone() *Volume[T] {
	clone := *v
	clone.data = make([]T, len(v.data))
	copy(clone.data, v.data)
	return &clone
}

// SameShape reports whether a and b have identical dimensions.
func SameShape[T, U Storage](a *Volume[T], b *Volume[U]) bool {
	return a.depth == b.depth && a.height == b.height && a.width == b.width
}
