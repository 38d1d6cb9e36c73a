// Package cpu probes the host CPU once at first use and reports which
// vectorization tier the processing pipelines should run at.
//
// The probe result is immutable for the process lifetime; a pipeline
// variant is selected exactly once at source construction and never
// re-dispatched per call.
package cpu

import (
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Tier identifies one of the four pipeline implementations, from the
// portable scalar baseline up to the widest fused vector form.
type Tier int

const (
	// TierBaseline is the scalar fallback available on every target.
	TierBaseline Tier = iota
	// Tier1 corresponds to 128-bit class vector support (SSE2/NEON).
	Tier1
	// Tier2 corresponds to 256-bit class vector support (AVX).
	Tier2
	// Tier3 corresponds to 256-bit fused multiply-add support (AVX2+FMA3).
	Tier3
)

// String returns a human-readable tier name for logging.
func (t Tier) String() string {
	switch t {
	case Tier1:
		return "tier1 (128-bit)"
	case Tier2:
		return "tier2 (256-bit)"
	case Tier3:
		return "tier3 (256-bit FMA)"
	default:
		return "baseline (scalar)"
	}
}

// Features holds the probed capability flags. Read-only after Detect.
type Features struct {
	HasTier1 bool
	HasTier2 bool
	HasTier3 bool
}

var (
	once     sync.Once
	features Features
)

// Detect returns the process-wide capability flags, probing the CPU on
// the first call.
func Detect() Features {
	once.Do(func() {
		features = Features{
			HasTier1: cpuid.CPU.Supports(cpuid.SSE2),
			HasTier2: cpuid.CPU.Supports(cpuid.AVX),
			HasTier3: cpuid.CPU.Supports(cpuid.AVX2) && cpuid.CPU.Supports(cpuid.FMA3),
		}
	})
	return features
}

// BestTier returns the widest tier supported by this CPU.
func BestTier() Tier {
	f := Detect()
	switch {
	case f.HasTier3:
		return Tier3
	case f.HasTier2:
		return Tier2
	case f.HasTier1:
		return Tier1
	default:
		return TierBaseline
	}
}
