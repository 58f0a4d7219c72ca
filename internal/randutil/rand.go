package randutil

import rand "math/rand/v2"

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises how we derive the two 64-bit seeds required by rand/v2
// so that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// SampleRange draws n distinct integers uniformly from the inclusive range
// [lo, hi] by rejection sampling: draw, discard duplicates, repeat until n
// unique values are collected. The range must contain at least n values.
func SampleRange(rng *rand.Rand, lo, hi, n int) []int {
	if hi-lo+1 < n {
		panic("randutil: sample larger than range")
	}
	out := make([]int, 0, n)
	seen := make(map[int]bool, n)
	for len(out) < n {
		v := lo + rng.IntN(hi-lo+1)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
