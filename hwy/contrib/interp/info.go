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
	"maps"
	"slices"
	"strings"

	"github.com/voxelkit/affiners/hwy"
)

// Version is the library version reported by BuildInfo.
const Version = "0.4.0"

// Info describes how this process resamples: detected CPU features,
// executor and the backend chosen for each precision.
type Info struct {
	Version      string
	Arch         string
	Level        hwy.DispatchLevel
	Flags        map[string]bool
	SIMDDisabled bool
	Parallel     bool
	Workers      int
	Selected     map[Precision]Backend
	Preferences  map[Precision][]Backend
}

// BuildInfo reports the default dispatcher and the shared worker pool.
func BuildInfo() Info {
	return DefaultDispatcher().Info(SharedPool().NumWorkers())
}

// Info reports the dispatcher's detection result for a pool of the given size.
func (d *Dispatcher) Info(workers int) Info {
	f := d.Features()
	info := Info{
		Version:      Version,
		Arch:         f.Arch,
		Level:        f.Level,
		Flags:        f.Flags(),
		SIMDDisabled: f.Disabled,
		Parallel:     workers > 1,
		Workers:      workers,
		Selected:     make(map[Precision]Backend, len(Precisions)),
		Preferences:  make(map[Precision][]Backend, len(Precisions)),
	}
	for _, p := range Precisions {
		info.Selected[p] = d.Selected(p)
		info.Preferences[p] = d.Preferences(p)
	}
	return info
}

func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "affiners %s (%s, level %s)\n", i.Version, i.Arch, i.Level)
	if i.SIMDDisabled {
		sb.WriteString("SIMD disabled by HWY_NO_SIMD\n")
	}
	for _, name := range slices.Sorted(maps.Keys(i.Flags)) {
		fmt.Fprintf(&sb, "  %-8s %v\n", name, i.Flags[name])
	}
	fmt.Fprintf(&sb, "parallel: %v (%d workers)\n", i.Parallel, i.Workers)
	for _, p := range Precisions {
		names := make([]string, len(i.Preferences[p]))
		for j, b := range i.Preferences[p] {
			names[j] = b.String()
		}
		fmt.Fprintf(&sb, "  %-8s %-7s [%s]\n", p, i.Selected[p], strings.Join(names, " > "))
	}
	return sb.String()
}
