package pricefeed

import (
	"sort"
)

// consensusTolerance is the maximum relative deviation from the median for a
// source to count as consistent (0.1%).
const consensusTolerance = 0.001

// Quote is the outcome of aggregating multiple source prices.
type Quote struct {
	Price float64
	// Sources lists the providers whose prices contributed to Price.
	Sources []string
	// LowConfidence is set when only a single source responded.
	LowConfidence bool
	// Median is set when sources disagreed beyond tolerance and the median
	// of all returned prices was used instead of a consistent-subset mean.
	Median bool
}

// Resolve aggregates per-source prices into a single trusted quote.
//
// Zero successes yields ok=false and the caller must not create or advance a
// trade on the result. One success is returned as-is, flagged low-confidence.
// With two or more, sources within 0.1% of the median form the consistent
// subset; if at least two agree their mean is used, otherwise the median of
// all returned prices (upper middle for even counts).
//
// The median anchors the partition because a single far-off source can drag
// the arithmetic mean out of everyone's tolerance band, which would discard
// the agreeing majority along with the outlier.
func Resolve(prices map[string]float64) (Quote, bool) {
	if len(prices) == 0 {
		return Quote{}, false
	}

	if len(prices) == 1 {
		for name, price := range prices {
			return Quote{Price: price, Sources: []string{name}, LowConfidence: true}, true
		}
	}

	values := make([]float64, 0, len(prices))
	for _, p := range prices {
		values = append(values, p)
	}
	sort.Float64s(values)
	median := values[len(values)/2]

	var consistent []string
	var consistentSum float64
	for name, p := range prices {
		deviation := (p - median) / median
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation <= consensusTolerance {
			consistent = append(consistent, name)
			consistentSum += p
		}
	}

	if len(consistent) >= 2 {
		sort.Strings(consistent)
		return Quote{
			Price:   consistentSum / float64(len(consistent)),
			Sources: consistent,
		}, true
	}

	all := make([]string, 0, len(prices))
	for name := range prices {
		all = append(all, name)
	}
	sort.Strings(all)
	return Quote{
		Price:   median,
		Sources: all,
		Median:  true,
	}, true
}
