package ranking

import "github.com/pkordes/detour/internal/domain"

// bounds holds the per-batch ranges used to rescale option metrics.
// A range is never zero: a batch where every option ties on a metric gets a
// denominator of 1 so each option scores as the best on it.
type bounds struct {
	minDuration   float64
	durationRange float64
	minPrice      float64
	priceRange    float64
	// transfers are always measured from a floor of 0.
	transfersRange float64
}

// normalize computes bounds over a non-empty batch.
func normalize(options []domain.TransitOption) bounds {
	minD, maxD := options[0].DurationMinutes, options[0].DurationMinutes
	minP, maxP := options[0].Price, options[0].Price
	maxT := options[0].Transfers

	for _, o := range options[1:] {
		minD = min(minD, o.DurationMinutes)
		maxD = max(maxD, o.DurationMinutes)
		minP = min(minP, o.Price)
		maxP = max(maxP, o.Price)
		maxT = max(maxT, o.Transfers)
	}

	b := bounds{
		minDuration:    float64(minD),
		durationRange:  float64(maxD - minD),
		minPrice:       minP,
		priceRange:     maxP - minP,
		transfersRange: float64(maxT),
	}
	if maxD == minD {
		b.durationRange = 1
	}
	if maxP == minP {
		b.priceRange = 1
	}
	if maxT <= 0 {
		b.transfersRange = 1
	}
	return b
}

func (b bounds) durationScore(o domain.TransitOption) float64 {
	return 1 - (float64(o.DurationMinutes)-b.minDuration)/b.durationRange
}

func (b bounds) priceScore(o domain.TransitOption) float64 {
	return 1 - (o.Price-b.minPrice)/b.priceRange
}

func (b bounds) transferScore(o domain.TransitOption) float64 {
	return 1 - float64(o.Transfers)/b.transfersRange
}
