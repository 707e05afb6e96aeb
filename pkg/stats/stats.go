package stats

import (
	"math"
	"sort"
)

// Mean computes the average of a slice. Values are scaled by the largest
// magnitude first so sums of large finite values do not overflow.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	scale := maxAbs(x)
	if scale == 0 || math.IsInf(scale, 0) {
		return Sum(x) / float64(len(x))
	}
	m := 0.0
	for _, v := range x {
		m += v / scale
	}
	return m / float64(len(x)) * scale
}

// Sum returns the sum of all elements in the slice.
func Sum(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s
}

// Variance computes the population variance, saturating at MaxFloat64.
func Variance(x []float64) float64 {
	sd := Std(x)
	if sd > math.Sqrt(math.MaxFloat64) {
		return math.MaxFloat64
	}
	return sd * sd
}

// Std computes the population standard deviation in two passes over values
// scaled by the largest magnitude.
func Std(x []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}
	scale := maxAbs(x)
	if scale == 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return 0
	}
	mean := 0.0
	for _, v := range x {
		mean += v / scale
	}
	mean /= n
	ss := 0.0
	for _, v := range x {
		d := v/scale - mean
		ss += d * d
	}
	return math.Sqrt(ss/n) * scale
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// MinMax returns the minimum and maximum values in the slice.
func MinMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	lo, hi := x[0], x[0]
	for _, v := range x[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Median returns the median value of the slice (allocates a copy).
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	mid := n >> 1
	if n&1 == 0 {
		return cp[mid-1]*0.5 + cp[mid]*0.5
	}
	return cp[mid]
}

// Percentile returns the p-th percentile (0 <= p <= 100) with linear
// interpolation between closest ranks.
func Percentile(x []float64, p float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	lo, hi := MinMax(x)
	if p <= 0 {
		return lo
	}
	if p >= 100 {
		return hi
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	rank := p / 100 * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	weight := rank - float64(lower)
	if upper >= n {
		return cp[lower]
	}
	return cp[lower]*(1-weight) + cp[upper]*weight
}

// TopValue returns the most frequent string and its count. Ties go to the
// lexically smallest value so the result is stable.
func TopValue(x []string) (string, int) {
	counts := make(map[string]int, len(x))
	for _, v := range x {
		counts[v]++
	}
	top, best := "", 0
	for v, c := range counts {
		if c > best || (c == best && v < top) {
			top, best = v, c
		}
	}
	return top, best
}
