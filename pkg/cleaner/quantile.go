// pkg/cleaner/quantile.go
package cleaner

import (
	"math"
	"sort"
)

// valueBucketLabels name the quartile bins of plan_price, smallest first.
var valueBucketLabels = []string{"Small", "Medium", "Large", "Enterprise"}

// quantileOf returns the q-th empirical quantile of values using linear
// interpolation between order statistics. Returns false for an empty
// input; quantile computation must never fail the run.
func quantileOf(values []float64, q float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], true
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac, true
}

// quartileBins computes the 0.25/0.50/0.75 cut points over values and
// the bucket labels to use. Duplicate cut points collapse into a single
// edge and the trailing labels are dropped with them, so a batch with
// little price variety still buckets without error.
func quartileBins(values []float64) ([]float64, []string) {
	if len(values) == 0 {
		return nil, nil
	}

	var cuts []float64
	for _, q := range []float64{0.25, 0.50, 0.75} {
		v, ok := quantileOf(values, q)
		if !ok {
			continue
		}
		if len(cuts) > 0 && cuts[len(cuts)-1] == v {
			continue // duplicate edge, drop it
		}
		cuts = append(cuts, v)
	}

	labels := valueBucketLabels[:len(cuts)+1]
	return cuts, labels
}

// bucketFor places a value into its quartile bucket. Values at or below
// a cut point belong to the lower bucket, matching half-open quantile
// bins anchored at the batch minimum.
func bucketFor(value float64, cuts []float64, labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	for i, cut := range cuts {
		if value <= cut {
			return labels[i]
		}
	}
	return labels[len(labels)-1]
}
