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

//go:build amd64

package hwy

import "golang.org/x/sys/cpu"

func detectCPUFeatures(f *Features) {
	f.AVX = cpu.X86.HasAVX
	f.AVX2 = cpu.X86.HasAVX2
	f.FMA = cpu.X86.HasFMA
	f.AVX512F = cpu.X86.HasAVX512F

	// x/sys/cpu does not expose F16C (CPUID leaf 1, ECX bit 29). Every part
	// with AVX and FMA (Haswell, Piledriver and later) carries it.
	f.F16C = f.AVX && f.FMA

	switch {
	case f.AVX512F && f.AVX2 && f.FMA:
		f.Level = DispatchAVX512
	case f.AVX2 && f.FMA:
		f.Level = DispatchAVX2
	default:
		// SSE2 is the amd64 baseline.
		f.Level = DispatchSSE2
	}
}
