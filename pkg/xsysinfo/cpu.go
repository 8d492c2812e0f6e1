package xsysinfo

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/jaypipes/ghw"
	"github.com/klauspost/cpuid/v2"
)

// MaxDefaultThreads caps the number of threads used when none is requested.
const MaxDefaultThreads = 4

func CPUCapabilities() ([]string, error) {
	cpu, err := ghw.CPU()
	if err != nil {
		return nil, err
	}

	caps := map[string]struct{}{}
	for _, proc := range cpu.Processors {
		for _, c := range proc.Capabilities {
			caps[c] = struct{}{}
		}
	}

	ret := []string{}
	for c := range caps {
		ret = append(ret, c)
	}

	// order
	sort.Strings(ret)
	return ret, nil
}

func HasCPUCaps(ids ...cpuid.FeatureID) bool {
	return cpuid.CPU.Supports(ids...)
}

func CPUPhysicalCores() int {
	if cpuid.CPU.PhysicalCores == 0 {
		return 1
	}
	return cpuid.CPU.PhysicalCores
}

// DefaultThreads is the hardware concurrency capped at MaxDefaultThreads.
func DefaultThreads() int {
	n := runtime.NumCPU()
	if n < 1 {
		n = CPUPhysicalCores()
	}
	return min(MaxDefaultThreads, n)
}

var reportedFeatures = []struct {
	name string
	id   cpuid.FeatureID
}{
	{"AVX", cpuid.AVX},
	{"AVX2", cpuid.AVX2},
	{"AVX512", cpuid.AVX512F},
	{"FMA", cpuid.FMA3},
	{"F16C", cpuid.F16C},
	{"NEON", cpuid.ASIMD},
	{"SSE3", cpuid.SSE3},
	{"SSSE3", cpuid.SSSE3},
}

// SystemInfo renders the one-line summary logged before inference.
func SystemInfo(threads, processors int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "n_threads = %d / %d | processors = %d", threads, runtime.NumCPU(), processors)
	for _, f := range reportedFeatures {
		v := 0
		if HasCPUCaps(f.id) {
			v = 1
		}
		fmt.Fprintf(&b, " | %s = %d", f.name, v)
	}
	if ram := SystemRAM(); ram.Total > 0 {
		fmt.Fprintf(&b, " | RAM = %.1f GiB", float64(ram.Total)/(1<<30))
	}
	return b.String()
}
