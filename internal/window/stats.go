package window

import (
	"github.com/montanaflynn/stats"
)

// Median returns the middle value of the frame
func Median() Reducer {
	return Custom("median", func(values []float64) (float64, bool, error) {
		if len(values) == 0 {
			return 0, false, nil
		}
		m, err := stats.Median(values)
		return m, err == nil, err
	})
}

// StdDev returns the sample standard deviation of the frame.
// Frames with fewer than two values are missing.
func StdDev() Reducer {
	return Custom("std", func(values []float64) (float64, bool, error) {
		if len(values) < 2 {
			return 0, false, nil
		}
		sd, err := stats.StandardDeviationSample(values)
		return sd, err == nil, err
	})
}

// Variance returns the sample variance of the frame.
// Frames with fewer than two values are missing.
func Variance() Reducer {
	return Custom("var", func(values []float64) (float64, bool, error) {
		if len(values) < 2 {
			return 0, false, nil
		}
		v, err := stats.SampleVariance(values)
		return v, err == nil, err
	})
}
