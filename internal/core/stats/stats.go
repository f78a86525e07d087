// Package stats computes the distribution statistics used for outlier
// normalization. Population standard deviation throughout; z-score
// consumers must treat StdDev == 0 as "not computable" and skip the check.
package stats

import "math"

// Distribution summarizes one numeric distribution
type Distribution struct {
	Mean   float64
	StdDev float64
	N      int
}

// Describe computes mean and population standard deviation.
// An empty input yields the zero Distribution (Mean 0, StdDev 0).
func Describe(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return Distribution{
		Mean:   mean,
		StdDev: math.Sqrt(sq / float64(n)),
		N:      n,
	}
}

// DescribeInts is Describe over integer counts
func DescribeInts(values []int) Distribution {
	fs := make([]float64, len(values))
	for i, v := range values {
		fs[i] = float64(v)
	}
	return Describe(fs)
}

// ZScore returns (v - mean)/stddev and whether it was computable.
// StdDev == 0 means the check must be skipped, never a division.
func (d Distribution) ZScore(v float64) (float64, bool) {
	if d.StdDev == 0 {
		return 0, false
	}
	return (v - d.Mean) / d.StdDev, true
}

// CoefficientOfVariation returns stddev/mean and whether it was computable
// (mean 0 is not)
func (d Distribution) CoefficientOfVariation() (float64, bool) {
	if d.Mean == 0 {
		return 0, false
	}
	return d.StdDev / d.Mean, true
}

// DatasetStats is the per-run distribution bundle detectors normalize
// against: posts-per-user and hashtags-per-user.
type DatasetStats struct {
	PostsPerUser    Distribution
	HashtagsPerUser Distribution
}

// ForDataset derives DatasetStats from per-user counts
func ForDataset(postCounts, hashtagCounts []int) DatasetStats {
	return DatasetStats{
		PostsPerUser:    DescribeInts(postCounts),
		HashtagsPerUser: DescribeInts(hashtagCounts),
	}
}
