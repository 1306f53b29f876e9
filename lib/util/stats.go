// Package util provides statistics helpers for the panel engine.
// This file implements summary statistics over sampled per-key byte sizes,
// used by the instance overview to scale a bounded sample up to a
// database-wide estimate without walking the full keyspace.
package util

import (
	"math"
)

// ----------------------------------------------------------------------------
// Sample statistics
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	Sum          float64 `json:"sum"`
}

// NewStats computes mean, standard deviation, minimum, maximum and sum
// from an array of float64 values.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	// initialize min and max with the first value
	min := values[0]
	max := values[0]

	// calculate sum for mean
	var sum float64
	for _, v := range values {
		sum += v

		// update min and max while iterating
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	// calculate mean
	mean := sum / float64(len(values))

	// calculate sum of squared differences from mean
	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	// calculate standard deviation (population formula)
	stdDev := math.Sqrt(sumSquaredDiffs / float64(len(values)))

	return Stats{
		StdDeviation: stdDev,
		Min:          min,
		Max:          max,
		Mean:         mean,
		Sum:          sum,
	}
}

// ----------------------------------------------------------------------------
// Population estimation
// ----------------------------------------------------------------------------

// EstimateTotal scales a sample measurement up to a population of the
// given size. sampleHits is the measured quantity over sampleSize
// observations (a byte sum, a count of expiring keys, ...).
func EstimateTotal(sampleHits, sampleSize, population int64) int64 {
	if sampleSize <= 0 || population <= 0 {
		return 0
	}
	return int64(math.Round(float64(sampleHits) * float64(population) / float64(sampleSize)))
}
