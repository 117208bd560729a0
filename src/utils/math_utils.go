package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// RoundToUnit rounds to the nearest whole currency unit.
func RoundToUnit(val float64) float64 {
	return math.Round(val)
}

// FloorToUnit truncates toward negative infinity to a whole currency unit.
func FloorToUnit(val float64) float64 {
	return math.Floor(val)
}
