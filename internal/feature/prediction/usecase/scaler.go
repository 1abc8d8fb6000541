package usecase

import "math"

// StandardScaler standardizes features to zero mean and unit variance.
// Fields are exported so a fitted scaler serializes with encoding/gob.
type StandardScaler struct {
	Means   []float64
	Stddevs []float64
}

// Fit computes per-column means and standard deviations.
func (s *StandardScaler) Fit(x [][]float64) {
	if len(x) == 0 {
		return
	}
	n := len(x[0])
	s.Means = make([]float64, n)
	s.Stddevs = make([]float64, n)

	for j := 0; j < n; j++ {
		sum := 0.0
		for _, row := range x {
			sum += row[j]
		}
		s.Means[j] = sum / float64(len(x))
	}
	for j := 0; j < n; j++ {
		sumSq := 0.0
		for _, row := range x {
			d := row[j] - s.Means[j]
			sumSq += d * d
		}
		s.Stddevs[j] = math.Sqrt(sumSq / float64(len(x)))
		if s.Stddevs[j] == 0 {
			// Constant column: leave the centered value at zero.
			s.Stddevs[j] = 1
		}
	}
}

// Transform standardizes a matrix with the fitted statistics.
func (s *StandardScaler) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.TransformRow(row)
	}
	return out
}

// TransformRow standardizes a single feature vector.
func (s *StandardScaler) TransformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Means[j]) / s.Stddevs[j]
	}
	return out
}

// FitTransform fits the scaler and returns the standardized matrix.
func (s *StandardScaler) FitTransform(x [][]float64) [][]float64 {
	s.Fit(x)
	return s.Transform(x)
}
