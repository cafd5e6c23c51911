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

package hwy

import "math/bits"

// Floats is a constraint for floating-point types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer types.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integers is a constraint for all integer types.
type Integers interface {
	SignedInts | UnsignedInts
}

// Lanes is a constraint for every element type a register can hold.
type Lanes interface {
	Floats | Integers
}

// MaxVecLanes is the lane capacity of a Vec: sixteen float32 lanes fill a
// 512-bit register. Narrower targets use a prefix of the lanes.
const MaxVecLanes = 16

// Vec is a SIMD vector of up to MaxVecLanes lanes of T.
//
// In base mode the lanes live in a fixed array, so a Vec is a plain value:
// ops return new vectors without allocating, and the lane count is chosen
// by the caller for the target being modelled rather than taken from the
// host.
type Vec[T Lanes] struct {
	data [MaxVecLanes]T
	n    int
}

// NumLanes returns the number of lanes in the vector.
func (v Vec[T]) NumLanes() int {
	return v.n
}

// Data returns a copy of the lanes as a slice.
func (v Vec[T]) Data() []T {
	return v.data[:v.n:v.n]
}

// Store writes the lanes to dst, stopping early if dst is shorter.
func (v Vec[T]) Store(dst []T) {
	copy(dst, v.data[:v.n])
}

// Mask is a per-lane predicate produced by comparisons. Bit i is set when
// lane i is active.
type Mask[T Lanes] struct {
	bits uint32
	n    int
}

// NumLanes returns the number of lanes in the mask.
func (m Mask[T]) NumLanes() int {
	return m.n
}

// AllTrue returns true if every lane is active.
func (m Mask[T]) AllTrue() bool {
	return m.bits == lowBits(m.n)
}

// AnyTrue returns true if at least one lane is active.
func (m Mask[T]) AnyTrue() bool {
	return m.bits != 0
}

// CountTrue returns the number of active lanes.
func (m Mask[T]) CountTrue() int {
	return bits.OnesCount32(m.bits)
}

// GetBit returns whether lane i is active. Out-of-range lanes are inactive.
func (m Mask[T]) GetBit(i int) bool {
	if i < 0 || i >= m.n {
		return false
	}
	return m.bits&(1<<i) != 0
}

// Bits returns the mask as an integer, lane 0 in bit 0.
func (m Mask[T]) Bits() uint32 {
	return m.bits
}

func lowBits(n int) uint32 {
	return uint32(1)<<n - 1
}
