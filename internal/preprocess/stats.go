package preprocess

import "sort"

// medianOf is the midpoint median: the mean of the two middle values for an
// even count. Input is copied before sorting.
func medianOf(xs []float64) float64 {
	s := append([]float64{}, xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
