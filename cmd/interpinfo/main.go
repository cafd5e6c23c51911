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

// Command interpinfo reports how this host resamples volumes: the CPU
// features detection found, the backend chosen for every precision and the
// worker pool size.
//
// Usage:
//
//	interpinfo                          # capabilities and selection
//	interpinfo -selftest                # also compare every eligible backend against scalar
//	interpinfo -config affiners.yaml    # apply execution and logging settings
//	interpinfo -write-config affiners.yaml
//
// Setting HWY_NO_SIMD=1 forces the scalar backend everywhere.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/voxelkit/affiners/hwy/contrib/interp"
	"github.com/voxelkit/affiners/internal/config"
)

var (
	configPath  = flag.String("config", "", "YAML configuration file (optional)")
	writeConfig = flag.String("write-config", "", "Write the default configuration to this path and exit")
	selfTest    = flag.Bool("selftest", false, "Resample random volumes on every eligible backend and compare with scalar")
	size        = flag.Int("size", 24, "Edge length of the self-test volumes")
)

func main() {
	flag.Parse()

	if *writeConfig != "" {
		if err := config.SaveConfig(config.DefaultConfig(), *writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", *writeConfig)
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	level, _ := cfg.LogLevel()
	interp.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	pool := cfg.NewPool()
	if pool != nil {
		defer pool.Close()
	}
	opts, err := cfg.Options(pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	workers := interp.SharedPool().NumWorkers()
	switch {
	case cfg.Execution.Sequential:
		workers = 1
	case pool != nil:
		workers = pool.NumWorkers()
	}
	fmt.Print(interp.DefaultDispatcher().Info(workers))
	printCPUFlags()

	if !*selfTest {
		return
	}
	fmt.Println()
	results := runSelfTest(interp.DefaultDispatcher(), *size, opts)
	failed := 0
	for _, r := range results {
		fmt.Println(r)
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d self-test runs disagree with scalar\n", failed, len(results))
		os.Exit(1)
	}
}

// printCPUFlags dumps the raw x/sys/cpu view, which can differ from the
// detection result when HWY_NO_SIMD or HWY_NO_SVE is set.
func printCPUFlags() {
	fmt.Println("x/sys/cpu:")
	switch runtime.GOARCH {
	case "amd64":
		fmt.Printf("  avx=%v avx2=%v fma=%v avx512f=%v\n",
			cpu.X86.HasAVX, cpu.X86.HasAVX2, cpu.X86.HasFMA, cpu.X86.HasAVX512F)
	case "arm64":
		fmt.Printf("  asimd=%v asimdhp=%v fphp=%v sve=%v\n",
			cpu.ARM64.HasASIMD, cpu.ARM64.HasASIMDHP, cpu.ARM64.HasFPHP, cpu.ARM64.HasSVE)
	default:
		fmt.Printf("  no SIMD flags reported for %s\n", runtime.GOARCH)
	}
}
