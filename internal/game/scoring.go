package game

import "math"

// PointsFor scores a dial guess against the hidden target. Both values
// live on the 0-100 spectrum; distance is the plain absolute
// difference, no wraparound. The four bands are fixed:
//
//	d <= 2.5   -> 4
//	d <= 7.5   -> 3
//	d <= 12.5  -> 2
//	otherwise  -> 0
func PointsFor(target, guess float64) int {
	d := math.Abs(target - guess)
	switch {
	case d <= 2.5:
		return 4
	case d <= 7.5:
		return 3
	case d <= 12.5:
		return 2
	default:
		return 0
	}
}
