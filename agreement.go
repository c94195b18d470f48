package ibcao

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// An Agreement summarizes the differences between two sets of depths.
type Agreement struct {
	Count             int     // Number of pairs where both depths are not NaN.
	NaNMismatches     int     // Number of pairs where exactly one depth is NaN.
	Within            int     // Number of pairs that differ by at most the tolerance.
	MaxAbsDifference  float64 // Largest absolute difference.
	MeanAbsDifference float64 // Mean absolute difference.
	RMS               float64 // Root mean square difference.
}

// Fraction returns the fraction of pairs that are within the tolerance.
func (a Agreement) Fraction() float64 {
	if a.Count == 0 {
		return math.NaN()
	}
	return float64(a.Within) / float64(a.Count)
}

func (a Agreement) String() string {
	return fmt.Sprintf("count=%d within=%d (%.2f%%) nan_mismatches=%d max=%g mean=%g rms=%g",
		a.Count, a.Within, 100*a.Fraction(), a.NaNMismatches, a.MaxAbsDifference, a.MeanAbsDifference, a.RMS)
}

// Compare compares the depths in a and b, which must be the same length.
func Compare(a, b []float64, tolerance float64) Agreement {
	if len(a) != len(b) {
		panic("ibcao: length mismatch")
	}
	var agreement Agreement
	differences := make([]float64, 0, len(a))
	for i := range a {
		aNaN, bNaN := math.IsNaN(a[i]), math.IsNaN(b[i])
		switch {
		case aNaN && bNaN:
			continue
		case aNaN || bNaN:
			agreement.NaNMismatches++
			continue
		}
		difference := math.Abs(a[i] - b[i])
		if difference <= tolerance {
			agreement.Within++
		}
		differences = append(differences, difference)
	}
	agreement.Count = len(differences)
	if agreement.Count == 0 {
		return agreement
	}
	agreement.MaxAbsDifference = floats.Max(differences)
	agreement.MeanAbsDifference = stat.Mean(differences, nil)
	agreement.RMS = floats.Norm(differences, 2) / math.Sqrt(float64(agreement.Count))
	return agreement
}
