package calculator

import "math"

// Round2 rounds half up on the value scaled by 100. Every figure in
// StockInsights goes through it.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
