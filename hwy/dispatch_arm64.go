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

//go:build arm64

package hwy

import (
	"os"

	"golang.org/x/sys/cpu"
)

func detectCPUFeatures(f *Features) {
	// ASIMD is part of the ARMv8-A base architecture, but check it anyway.
	f.ASIMD = cpu.ARM64.HasASIMD
	f.ASIMDHP = cpu.ARM64.HasASIMDHP && cpu.ARM64.HasFPHP

	// HWY_NO_SVE keeps NEON while hiding SVE.
	f.SVE = cpu.ARM64.HasSVE && os.Getenv("HWY_NO_SVE") == ""

	switch {
	case f.SVE && f.ASIMD:
		f.Level = DispatchSVE
	case f.ASIMD:
		f.Level = DispatchNEON
	}
}
