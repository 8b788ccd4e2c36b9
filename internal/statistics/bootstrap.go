// Package statistics computes bootstrap confidence intervals over session
// scores.
package statistics

import (
	"math"
	"math/rand"
	"slices"

	"github.com/qamaster/personaqa/internal/models"
)

// DefaultBootstrapIterations is the number of resamples drawn per interval.
const DefaultBootstrapIterations = 10000

// DefaultConfidenceLevel is used for the overall score interval of a session.
const DefaultConfidenceLevel = 0.95

// BootstrapCIWithSeed estimates a percentile bootstrap interval for the mean
// of scores. confidenceLevel is a fraction, such as 0.95. With fewer than 2
// scores the interval collapses onto the mean. A negative seed draws one from
// the global source.
func BootstrapCIWithSeed(scores []float64, confidenceLevel float64, seed int64) models.ConfidenceInterval {
	ci := models.ConfidenceInterval{
		Mean:            mean(scores),
		ConfidenceLevel: confidenceLevel,
	}

	if len(scores) < 2 {
		ci.Lower, ci.Upper = ci.Mean, ci.Mean
		return ci
	}

	if seed < 0 {
		seed = rand.Int63()
	}

	means := resampleMeans(rand.New(rand.NewSource(seed)), scores, DefaultBootstrapIterations)
	slices.Sort(means)

	tail := (1 - confidenceLevel) / 2
	ci.Lower = percentile(means, tail)
	ci.Upper = percentile(means, 1-tail)
	ci.NumBootstraps = len(means)
	return ci
}

// resampleMeans returns the mean of each of n resamples (with replacement)
// of scores.
func resampleMeans(rng *rand.Rand, scores []float64, n int) []float64 {
	means := make([]float64, n)
	for i := range means {
		var sum float64
		for range scores {
			sum += scores[rng.Intn(len(scores))]
		}
		means[i] = sum / float64(len(scores))
	}
	return means
}

// percentile picks the value at fraction q of a sorted slice.
func percentile(sorted []float64, q float64) float64 {
	idx := int(math.Floor(q * float64(len(sorted))))
	return sorted[min(max(idx, 0), len(sorted)-1)]
}

// ScoreCI is BootstrapCIWithSeed over integer judge scores, with bounds
// rounded to one decimal.
func ScoreCI(scores []int, confidenceLevel float64, seed int64) models.ConfidenceInterval {
	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = float64(s)
	}

	ci := BootstrapCIWithSeed(values, confidenceLevel, seed)
	ci.Lower = round1(ci.Lower)
	ci.Upper = round1(ci.Upper)
	ci.Mean = round1(ci.Mean)
	return ci
}

// Above reports whether the whole interval lies strictly above threshold.
func Above(ci models.ConfidenceInterval, threshold float64) bool {
	return ci.Lower > threshold
}

// Below reports whether the whole interval lies strictly below threshold.
func Below(ci models.ConfidenceInterval, threshold float64) bool {
	return ci.Upper < threshold
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
