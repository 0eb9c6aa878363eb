package weighing

import (
	"fmt"
	"math"
)

const lbsToKg = 0.453592

// ToKilograms normalizes a submitted weight to whole kilograms.
// Pound values are converted and truncated; kilogram values must already be
// integral. Negative weights are rejected.
func ToKilograms(weight float64, unit string) (int, error) {
	if weight < 0 {
		return 0, fmt.Errorf("invalid weight value: %v", weight)
	}
	switch unit {
	case "", "kg":
		if weight != math.Trunc(weight) {
			return 0, fmt.Errorf("invalid weight value: %v", weight)
		}
		return int(weight), nil
	case "lbs":
		return int(weight * lbsToKg), nil
	default:
		return 0, fmt.Errorf("invalid unit %q, expected kg or lbs", unit)
	}
}
