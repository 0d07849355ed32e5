package utils

import "math"

// SignedPow raises |x| to p and restores the sign of x, so a negative base
// yields a real result instead of NaN.
func SignedPow(x, p float64) float64 {
	if x < 0 {
		return -math.Pow(-x, p)
	}
	return math.Pow(x, p)
}
