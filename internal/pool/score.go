package pool

import "math"

// Resource caps used to normalise raw metrics into [0,1], per §4.1.
const (
	capCPU             = 100.0
	capMemPercent      = 100.0
	capConnections     = 100.0
	capResponseSeconds = 1.0
)

// Normalize maps a raw value into [0,1] against cap: values below zero clamp
// to zero, values above cap clamp to one. Non-finite input (NaN, +/-Inf)
// yields 0, matching the "on any non-numeric input, yields 0" rule.
func Normalize(v, cap float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || cap <= 0 {
		return 0
	}
	if v < 0 {
		v = 0
	}
	n := v / cap
	if n > 1.0 {
		return 1.0
	}
	return n
}

// CapacityScore computes the [0,1] capacity score for a backend snapshot.
// Unmeasured fields (zero raw value from a never-polled backend) normalise
// to 0 and so contribute the optimistic 1.0 to their term — fresh backends
// are eligible immediately.
func CapacityScore(s Snapshot) float64 {
	cpuN := Normalize(s.CPU, capCPU)
	memN := Normalize(s.Mem, capMemPercent)
	connN := Normalize(float64(s.Connections), capConnections)
	respN := Normalize(s.ResponseTime, capResponseSeconds)
	return 0.4*(1-cpuN) + 0.2*(1-memN) + 0.2*(1-connN) + 0.2*(1-respN)
}

// EffectiveWeightFromScore converts a [0,1] capacity score into the [1,5]
// effective weight smooth-WRR consumes.
func EffectiveWeightFromScore(score float64) int {
	w := int(math.Round(score * 5))
	if w < 1 {
		return 1
	}
	if w > 5 {
		return 5
	}
	return w
}
