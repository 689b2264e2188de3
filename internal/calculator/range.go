package calculator

import (
	"errors"
	"math"
)

// ValueRange scans indexes [from, to) of every column and returns the lowest and highest value.
func ValueRange(columns [][]float64, from, to int) (low, high float64, err error) {
	if from < 0 || to <= from {
		return 0, 0, errors.New("empty index range")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	seen := false
	for _, col := range columns {
		end := to
		if end > len(col) {
			end = len(col)
		}
		for i := from; i < end; i++ {
			v := col[i]
			if math.IsNaN(v) {
				continue
			}
			seen = true
			if v > high {
				high = v
			}
			if v < low {
				low = v
			}
		}
	}
	if !seen {
		return 0, 0, errors.New("no values in range")
	}
	return low, high, nil
}

// PadRange widens [low, high] by frac of its span on both sides. A flat range is widened by
// one unit so an axis built from it never has zero height.
func PadRange(low, high, frac float64) (float64, float64, error) {
	if high < low {
		return 0, 0, errors.New("high must be >= low")
	}
	if high == low {
		return low - 1, high + 1, nil
	}
	pad := (high - low) * frac
	return low - pad, high + pad, nil
}
