package core

// -----------------------------------------------------------------------------

// CalculateMean computes the arithmetic mean. An empty slice yields 0.
func CalculateMean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}
