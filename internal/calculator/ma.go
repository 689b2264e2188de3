package calculator

import "errors"

// RollingMean returns the trailing moving average of values over period samples.
// Element i is the mean of values[max(0, i-period+1) .. i], so the window shrinks at the
// start of the series instead of producing gaps. A period longer than the series yields the
// running mean from the first sample.
func RollingMean(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	// Each point sums its own window. A running sum would carry rounding error from
	// samples that already left the window.
	out := make([]float64, len(values))
	for i := range values {
		lo := i - period + 1
		if lo < 0 {
			lo = 0
		}
		sum := 0.0
		for j := lo; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(i-lo+1)
	}
	return out, nil
}

// RollingMeanColumns applies RollingMean to every column.
func RollingMeanColumns(columns [][]float64, period int) ([][]float64, error) {
	out := make([][]float64, len(columns))
	for i, col := range columns {
		smoothed, err := RollingMean(col, period)
		if err != nil {
			return nil, err
		}
		out[i] = smoothed
	}
	return out, nil
}
