package simd

import (
	"math"

	"simd/archsimd"
)

// Max returns the largest element of x, or -Inf when x is empty.
func Max(x []float32) float32 {
	if len(x) == 0 {
		return float32(math.Inf(-1))
	}
	if cpu.HasAVX2 && len(x) >= 16 {
		return maxSIMD(x)
	}
	return maxScalar(x)
}

// maxScalar returns the largest element using scalar operations.
func maxScalar(x []float32) float32 {
	maxv := x[0]
	for _, v := range x[1:] {
		if v > maxv {
			maxv = v
		}
	}
	return maxv
}

// maxSIMD returns the largest element using AVX2 SIMD.
// len(x) must be at least 8.
func maxSIMD(x []float32) float32 {
	n := len(x)
	acc := archsimd.LoadFloat32x8Slice(x)
	i := 8
	// Process 8 elements at a time
	for ; i+8 <= n; i += 8 {
		v := archsimd.LoadFloat32x8Slice(x[i:])
		acc = acc.Max(v)
	}
	// Horizontal reduction: store to array and reduce scalarly
	var tmp [8]float32
	acc.Store(&tmp)
	maxv := tmp[0]
	for _, v := range tmp[1:] {
		if v > maxv {
			maxv = v
		}
	}
	// Handle remaining elements
	for ; i < n; i++ {
		if x[i] > maxv {
			maxv = x[i]
		}
	}
	return maxv
}

// Affine applies x[i] = x[i]*scale + shift in place.
func Affine(x []float32, scale, shift float32) {
	if cpu.HasAVX2 {
		affineSIMD(x, scale, shift)
		return
	}
	affineScalar(x, scale, shift)
}

// affineScalar applies the transform using scalar operations.
func affineScalar(x []float32, scale, shift float32) {
	for i := range x {
		x[i] = x[i]*scale + shift
	}
}

// affineSIMD applies the transform using AVX2 SIMD.
func affineSIMD(x []float32, scale, shift float32) {
	n := len(x)
	vscale := archsimd.BroadcastFloat32x8(scale)
	vshift := archsimd.BroadcastFloat32x8(shift)
	i := 0
	// Process 8 elements at a time
	for ; i+8 <= n; i += 8 {
		v := archsimd.LoadFloat32x8Slice(x[i:])
		v = v.MulAdd(vscale, vshift)
		v.StoreSlice(x[i:])
	}
	// Handle remaining elements
	for ; i < n; i++ {
		x[i] = x[i]*scale + shift
	}
}
