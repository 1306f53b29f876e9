package util

import (
	"math"
	"testing"
)

// TestNewStats tests the summary statistics over known inputs
func TestNewStats(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected Stats
	}{
		{
			name:     "Empty input",
			values:   nil,
			expected: Stats{},
		},
		{
			name:   "Single value",
			values: []float64{42},
			expected: Stats{
				Min: 42, Max: 42, Mean: 42, Sum: 42,
			},
		},
		{
			name:   "Uniform values",
			values: []float64{10, 10, 10, 10},
			expected: Stats{
				Min: 10, Max: 10, Mean: 10, Sum: 40,
			},
		},
		{
			name:   "Spread values",
			values: []float64{2, 4, 4, 4, 5, 5, 7, 9},
			expected: Stats{
				StdDeviation: 2, Min: 2, Max: 9, Mean: 5, Sum: 40,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewStats(tt.values)
			if math.Abs(got.StdDeviation-tt.expected.StdDeviation) > 1e-9 ||
				got.Min != tt.expected.Min ||
				got.Max != tt.expected.Max ||
				got.Mean != tt.expected.Mean ||
				got.Sum != tt.expected.Sum {
				t.Errorf("NewStats(%v) = %+v, want %+v", tt.values, got, tt.expected)
			}
		})
	}
}

// TestEstimateTotal tests sample scaling
func TestEstimateTotal(t *testing.T) {
	tests := []struct {
		name       string
		hits, size int64
		population int64
		expected   int64
	}{
		{"Full sample", 30, 100, 100, 30},
		{"Scale up", 30, 100, 1000, 300},
		{"Rounding", 1, 3, 100, 33},
		{"Empty sample", 5, 0, 100, 0},
		{"Empty population", 5, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTotal(tt.hits, tt.size, tt.population); got != tt.expected {
				t.Errorf("EstimateTotal(%d, %d, %d) = %d, want %d",
					tt.hits, tt.size, tt.population, got, tt.expected)
			}
		})
	}
}
