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
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"unsafe"
)

// DispatchLevel represents the SIMD instruction set a kernel targets.
type DispatchLevel int

const (
	// DispatchScalar indicates no SIMD, pure Go implementation.
	DispatchScalar DispatchLevel = iota

	// DispatchSSE2 indicates SSE2 instructions (x86-64 baseline).
	DispatchSSE2

	// DispatchAVX2 indicates AVX2 with FMA (256-bit SIMD).
	DispatchAVX2

	// DispatchAVX512 indicates AVX-512 Foundation (512-bit SIMD).
	DispatchAVX512

	// DispatchNEON indicates ARM NEON instructions (128-bit SIMD).
	DispatchNEON

	// DispatchSVE indicates ARM SVE instructions (scalable vector).
	DispatchSVE
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchSSE2:
		return "sse2"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	case DispatchSVE:
		return "sve"
	default:
		return "unknown"
	}
}

// Width returns the register width in bytes for the level.
// SVE is scalable; 256 bits is the width kernels batch for.
func (d DispatchLevel) Width() int {
	switch d {
	case DispatchAVX512:
		return 64
	case DispatchAVX2, DispatchSVE:
		return 32
	default:
		return 16
	}
}

// Features is the result of host capability detection.
//
// The x86 and ARM fields are only ever set on their own architecture; the
// other half stays false.
type Features struct {
	Arch string

	// x86-64.
	AVX     bool
	AVX2    bool
	FMA     bool
	F16C    bool
	AVX512F bool

	// arm64.
	ASIMD   bool
	ASIMDHP bool
	SVE     bool

	// Disabled is set when HWY_NO_SIMD forced detection to report nothing.
	Disabled bool

	// Level is the widest dispatch level the host supports.
	Level DispatchLevel
}

// Flags returns the detected feature bits by name, for diagnostics.
func (f *Features) Flags() map[string]bool {
	switch f.Arch {
	case "amd64":
		return map[string]bool{
			"avx":     f.AVX,
			"avx2":    f.AVX2,
			"fma":     f.FMA,
			"f16c":    f.F16C,
			"avx512f": f.AVX512F,
		}
	case "arm64":
		return map[string]bool{
			"asimd":   f.ASIMD,
			"asimdhp": f.ASIMDHP,
			"sve":     f.SVE,
		}
	}
	return map[string]bool{}
}

var detected atomic.Pointer[Features]

// Detect returns the host feature set, reading the CPU on first use.
//
// Detection is idempotent. Concurrent first callers may each run it; they
// compute the same answer and the first published value is the one every
// caller sees afterwards.
func Detect() *Features {
	if f := detected.Load(); f != nil {
		return f
	}
	f := detectHost()
	if detected.CompareAndSwap(nil, f) {
		return f
	}
	return detected.Load()
}

func detectHost() *Features {
	f := &Features{Arch: runtime.GOARCH, Level: DispatchScalar}
	if NoSimdEnv() {
		f.Disabled = true
		return f
	}
	detectCPUFeatures(f)
	return f
}

// HasF16C reports whether f converts between float16 and float32 in
// hardware: F16C on x86, FP16 arithmetic (FPHP/ASIMDHP) on ARM.
func (f *Features) HasF16C() bool {
	return f.F16C || f.ASIMDHP
}

// NoSimdEnv checks if the HWY_NO_SIMD environment variable is set.
// When set, Detect reports a scalar-only host regardless of CPU
// capabilities. This is useful for testing and debugging.
func NoSimdEnv() bool {
	val := os.Getenv("HWY_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// MaxLanes returns the number of lanes of type T that fit in a register of
// the given level.
//
// For example, with AVX2 (32 bytes):
//   - float32: 32/4 = 8 lanes
//   - float64: 32/8 = 4 lanes
func MaxLanes[T Lanes](level DispatchLevel) int {
	var dummy T
	elementSize := int(unsafe.Sizeof(dummy))
	if elementSize == 0 {
		return 0
	}
	return level.Width() / elementSize
}
