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

import (
	"math"
	"unsafe"
)

// Float16 represents an IEEE 754 half-precision (binary16) floating-point number.
// It wraps uint16 for storage but provides float semantics.
//
// Format: Sign (1 bit) | Exponent (5 bits) | Mantissa (10 bits)
//
//	S | EEEEE | MMMMMMMMMM
//
// Properties:
//   - Exponent bias: 15
//   - Max value: 65504
//   - Min positive normal: ~6.10e-5
//   - Precision: ~3.3 decimal digits
type Float16 uint16

// Float16 constants for special values.
const (
	Float16Zero      Float16 = 0x0000 // Positive zero
	Float16NegZero   Float16 = 0x8000 // Negative zero
	Float16One       Float16 = 0x3C00 // 1.0
	Float16NegOne    Float16 = 0xBC00 // -1.0
	Float16MaxValue  Float16 = 0x7BFF // 65504 (max finite value)
	Float16MinNormal Float16 = 0x0400 // 2^-14 (~6.10e-5, smallest normal)
	Float16MinValue  Float16 = 0x0001 // Smallest denormal (~5.96e-8)
	Float16Inf       Float16 = 0x7C00 // Positive infinity
	Float16NegInf    Float16 = 0xFC00 // Negative infinity
	Float16NaN       Float16 = 0x7E00 // Quiet NaN (canonical)
)

// Float16ToFloat32 converts a single Float16 to float32. The conversion is
// exact for every input.
func Float16ToFloat32(h Float16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := int32(h>>10) & 0x1F
	mant := uint32(h) & 0x3FF

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: shift the leading one into the implicit position.
		exp = 1
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		mant &= 0x3FF
	case 31:
		if mant == 0 {
			return math.Float32frombits(sign | 0x7F800000)
		}
		return math.Float32frombits(sign | 0x7FC00000 | mant<<13)
	}
	return math.Float32frombits(sign | uint32(exp+127-15)<<23 | mant<<13)
}

// Float32ToFloat16 converts a float32 to Float16 with round-to-nearest-even.
// Values beyond the half range become infinity, values below the smallest
// subnormal become signed zero.
func Float32ToFloat16(f float32) Float16 {
	bits := math.Float32bits(f)
	sign := uint32(bits>>16) & 0x8000
	exp := int32(bits>>23&0xFF) - 127 + 15
	mant := bits & 0x7FFFFF

	switch {
	case exp == 0xFF-127+15:
		if mant != 0 {
			return Float16(sign | 0x7E00 | mant>>13)
		}
		return Float16(sign | 0x7C00)
	case exp >= 31:
		return Float16(sign | 0x7C00)
	case exp <= 0:
		if exp < -10 {
			return Float16(sign)
		}
		full := mant | 0x800000
		shift := uint32(14 - exp)
		h := full >> shift
		rem := full & (1<<shift - 1)
		halfway := uint32(1) << (shift - 1)
		if rem > halfway || (rem == halfway && h&1 != 0) {
			// May carry into the smallest normal, which is the right encoding.
			h++
		}
		return Float16(sign | h)
	}

	h := uint32(exp)<<10 | mant>>13
	rem := mant & 0x1FFF
	if rem > 0x1000 || (rem == 0x1000 && h&1 != 0) {
		// A carry out of the mantissa bumps the exponent; 0x7BFF+1 is +Inf.
		h++
	}
	return Float16(sign | h)
}

// IsNaN returns true if h is a NaN value.
func (h Float16) IsNaN() bool {
	return h&0x7C00 == 0x7C00 && h&0x3FF != 0
}

// IsInf returns true if h is positive or negative infinity.
func (h Float16) IsInf() bool {
	return h&0x7FFF == 0x7C00
}

// IsZero returns true if h is positive or negative zero.
func (h Float16) IsZero() bool {
	return h&0x7FFF == 0
}

// IsNegative returns true if the sign bit is set.
func (h Float16) IsNegative() bool {
	return h&0x8000 != 0
}

// Float32 converts this Float16 to float32.
func (h Float16) Float32() float32 {
	return Float16ToFloat32(h)
}

// Float64 converts this Float16 to float64.
func (h Float16) Float64() float64 {
	return float64(Float16ToFloat32(h))
}

// NewFloat16 creates a Float16 from a float32 value.
func NewFloat16(f float32) Float16 {
	return Float32ToFloat16(f)
}

// NewFloat16FromFloat64 creates a Float16 from a float64 value, rounding
// once to nearest even. Going through float32 would round twice and can
// land a tie on the wrong side.
func NewFloat16FromFloat64(f float64) Float16 {
	bits := math.Float64bits(f)
	sign := uint64(bits>>48) & 0x8000
	exp := int64(bits>>52&0x7FF) - 1023 + 15
	mant := bits & (1<<52 - 1)

	switch {
	case exp == 0x7FF-1023+15:
		if mant != 0 {
			return Float16(sign | 0x7E00 | mant>>42)
		}
		return Float16(sign | 0x7C00)
	case exp >= 31:
		return Float16(sign | 0x7C00)
	case exp <= 0:
		if exp < -10 {
			return Float16(sign)
		}
		full := mant | 1<<52
		shift := uint64(43 - exp)
		h := full >> shift
		rem := full & (1<<shift - 1)
		halfway := uint64(1) << (shift - 1)
		if rem > halfway || (rem == halfway && h&1 != 0) {
			h++
		}
		return Float16(sign | h)
	}

	h := uint64(exp)<<10 | mant>>42
	rem := mant & (1<<42 - 1)
	if rem > 1<<41 || (rem == 1<<41 && h&1 != 0) {
		h++
	}
	return Float16(sign | h)
}

// Bits returns the raw uint16 representation.
func (h Float16) Bits() uint16 {
	return uint16(h)
}

// Float16FromBits creates a Float16 from raw bits.
func Float16FromBits(bits uint16) Float16 {
	return Float16(bits)
}

// Float16sToFloat32s widens src into dst. It panics if dst is shorter than src.
func Float16sToFloat32s(dst []float32, src []Float16) {
	if len(dst) < len(src) {
		panic("hwy: Float16sToFloat32s destination too small")
	}
	dst = dst[:len(src)]
	for i, h := range src {
		dst[i] = Float16ToFloat32(h)
	}
}

// Float32sToFloat16s narrows src into dst with round-to-nearest-even, the
// same rounding as the hardware conversion (VCVTPS2PH with imm8=0, FCVTN).
// It panics if dst is shorter than src.
func Float32sToFloat16s(dst []Float16, src []float32) {
	if len(dst) < len(src) {
		panic("hwy: Float32sToFloat16s destination too small")
	}
	dst = dst[:len(src)]
	for i, f := range src {
		dst[i] = Float32ToFloat16(f)
	}
}

// Float16View reinterprets a buffer of raw binary16 bit patterns as Float16
// values without copying. The two slices share memory.
func Float16View(bits []uint16) []Float16 {
	if unsafe.Sizeof(Float16(0)) != unsafe.Sizeof(uint16(0)) ||
		unsafe.Alignof(Float16(0)) != unsafe.Alignof(uint16(0)) {
		panic("hwy: Float16 layout differs from uint16")
	}
	if len(bits) == 0 {
		return nil
	}
	return unsafe.Slice((*Float16)(unsafe.Pointer(unsafe.SliceData(bits))), len(bits))
}

// Float16Bits is the inverse of Float16View.
func Float16Bits(h []Float16) []uint16 {
	if len(h) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(unsafe.SliceData(h))), len(h))
}
