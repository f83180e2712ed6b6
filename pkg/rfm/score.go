package rfm

import (
	"fmt"
	"math"
)

// BinTable maps a non-negative value to an ordinal label. Bounds are the
// closed-on-left lower boundaries of each bin; the last bin is open towards
// +Inf. Bounds must start at 0 and be strictly increasing so that every
// value in [0, +Inf) lands in exactly one bin.
type BinTable struct {
	Bounds []float64 `yaml:"bounds"`
	Labels []int     `yaml:"labels"`
}

// Validate rejects malformed tables before any customer data is processed.
func (b BinTable) Validate() error {
	if len(b.Bounds) == 0 {
		return fmt.Errorf("bin table is empty")
	}
	if len(b.Bounds) != len(b.Labels) {
		return fmt.Errorf("bin table has %d bounds but %d labels", len(b.Bounds), len(b.Labels))
	}
	if b.Bounds[0] != 0 {
		return fmt.Errorf("bin table must start at 0, got %g", b.Bounds[0])
	}
	for i := 1; i < len(b.Bounds); i++ {
		if b.Bounds[i] <= b.Bounds[i-1] {
			return fmt.Errorf("bin bounds not strictly increasing at index %d (%g <= %g)",
				i, b.Bounds[i], b.Bounds[i-1])
		}
	}
	return nil
}

// Score returns the label of the bin containing v. The lowest bin is closed
// on both ends so 0 itself gets the first label; values below 0 cannot occur
// for well-formed metrics but are clamped into the lowest bin to keep the
// mapping total.
func (b BinTable) Score(v float64) int {
	for i := len(b.Bounds) - 1; i > 0; i-- {
		if v >= b.Bounds[i] {
			return b.Labels[i]
		}
	}
	return b.Labels[0]
}

// MFScore blends the monetary and frequency scores into one ordinal.
// Rounding is half away from zero, as everywhere else in this module.
func MFScore(monetary, frequency int) int {
	return int(math.Round(float64(monetary+frequency) / 2.0))
}

// Default bin tables, overridable through configuration.

func DefaultMonetaryBins() BinTable {
	return BinTable{
		Bounds: []float64{0, 100, 200, 500, 1000},
		Labels: []int{1, 2, 3, 4, 5},
	}
}

func DefaultFrequencyBins() BinTable {
	return BinTable{
		Bounds: []float64{0, 1, 3, 6, 15},
		Labels: []int{1, 2, 3, 4, 5},
	}
}

// DefaultRecencyBins is inverted: fewer days since the last purchase score
// higher.
func DefaultRecencyBins() BinTable {
	return BinTable{
		Bounds: []float64{0, 30, 90, 180, 365},
		Labels: []int{5, 4, 3, 2, 1},
	}
}
