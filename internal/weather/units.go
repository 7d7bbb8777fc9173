package weather

import (
	"fmt"
	"math"
)

// ToDisplayUnit converts a Celsius value to Fahrenheit when useFahrenheit is
// set and returns it unchanged otherwise. Only used at render time.
func ToDisplayUnit(celsius float64, useFahrenheit bool) float64 {
	if !useFahrenheit {
		return celsius
	}
	return celsius*9.0/5.0 + 32.0
}

// UnitSymbol returns the display suffix for temperatures.
func UnitSymbol(useFahrenheit bool) string {
	if useFahrenheit {
		return "°F"
	}
	return "°C"
}

// FormatTemperature renders a Celsius value as a whole-degree label, e.g. "27°C".
func FormatTemperature(celsius float64, useFahrenheit bool) string {
	v := math.Round(ToDisplayUnit(celsius, useFahrenheit))
	if v == 0 {
		v = 0 // avoid "-0"
	}
	return fmt.Sprintf("%.0f%s", v, UnitSymbol(useFahrenheit))
}
