package ring

import "github.com/klauspost/cpuid/v2"

// wideMulFastPath is set at init according to whether the host CPU
// exposes the ADX/BMI2 carry-chain instructions that make wide
// (>64x64) multiply-accumulate chains cheap. The flag is only reported
// through WideMulFastPath; no arithmetic code path reads it.
var wideMulFastPath = cpuid.CPU.Supports(cpuid.ADX, cpuid.BMI2)

// WideMulFastPath reports whether the host CPU supports the ADX/BMI2
// carry-chain instructions.
func WideMulFastPath() bool {
	return wideMulFastPath
}
