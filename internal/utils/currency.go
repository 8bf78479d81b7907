package utils

import "math"

// RoundHalfUp rounds amount to the given number of decimal places with ties
// going towards positive infinity. The scaled value is first snapped to 1e-6
// so binary representation noise (1.005 * 100 = 100.4999...) does not flip a
// tie downwards. The snap is skipped from 1e9 scaled units upwards, where
// float64 no longer carries six extra digits.
func RoundHalfUp(amount float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	scaled := amount * scale
	if math.Abs(scaled) < snapLimit {
		scaled = math.Round(scaled*1e6) / 1e6
	}
	return math.Floor(scaled+0.5) / scale
}

const snapLimit = 1e9
