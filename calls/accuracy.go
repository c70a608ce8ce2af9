package calls

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// QualToAccuracy converts a Phred quality score to the probability
// that the base call is correct. NaN marks an unknown quality and
// converts to NaN.
func QualToAccuracy(q float64) float64 {
	if math.IsNaN(q) {
		return q
	}
	return 1 - math.Pow(10, -q/10)
}

// QualsToAccuracy converts Phred quality scores for a stretch of bases
// to the probability that the entire stretch is called correctly,
// pooling the per-base error rates. It returns NaN for an empty
// stretch, and NaN when any quality is NaN.
func QualsToAccuracy(quals []float64) float64 {
	if len(quals) == 0 {
		return math.NaN()
	}
	errors := make([]float64, len(quals))
	for i, q := range quals {
		errors[i] = math.Pow(10, -q/10)
	}
	return 1 - stat.Mean(errors, nil)
}
