package main

import (
	"fmt"
	"os"
	"runtime"

	"simd/archsimd"

	gojson "github.com/goccy/go-json"

	"github.com/Linkrw12/taiyaki/internal/simd"
)

type output struct {
	GoVersion  string          `json:"go_version"`
	GoOS       string          `json:"go_os"`
	GoArch     string          `json:"go_arch"`
	CPUs       int             `json:"cpus"`
	Workers    int             `json:"default_workers"`
	AVX2Kernel bool            `json:"avx2_kernel"`
	Features   map[string]bool `json:"features"`
}

func main() {
	features := map[string]bool{
		"AVX":             archsimd.X86.AVX(),
		"AVX2":            archsimd.X86.AVX2(),
		"FMA":             archsimd.X86.FMA(),
		"AVX512":          archsimd.X86.AVX512(),
		"AVX512BITALG":    archsimd.X86.AVX512BITALG(),
		"AVX512VBMI":      archsimd.X86.AVX512VBMI(),
		"AVX512VBMI2":     archsimd.X86.AVX512VBMI2(),
		"AVX512VNNI":      archsimd.X86.AVX512VNNI(),
		"AVX512VPOPCNTDQ": archsimd.X86.AVX512VPOPCNTDQ(),
		"AVXVNNI":         archsimd.X86.AVXVNNI(),
	}

	out := output{
		GoVersion:  runtime.Version(),
		GoOS:       runtime.GOOS,
		GoArch:     runtime.GOARCH,
		CPUs:       runtime.NumCPU(),
		Workers:    runtime.GOMAXPROCS(0),
		AVX2Kernel: simd.Features().HasAVX2,
		Features:   features,
	}

	enc := gojson.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
