package ranking

import (
	"fmt"

	"github.com/pkordes/detour/internal/domain"
)

// Penalty amounts subtracted from the base score.
const (
	NightPenalty        = 30.0
	LongLayoverPenalty  = 20.0
	ModeMismatchPenalty = 50.0
	MaxTransfersPenalty = 40.0
)

// longLayoverMinutes is the average segment length above which a journey
// with transfers counts as having long layovers.
const longLayoverMinutes = 120

func isNightHour(hour int) bool {
	return hour >= 22 || hour < 6
}

// applyPenalties subtracts every soft-preference penalty that fires for o and
// appends one fragment per penalty, in a fixed order.
func applyPenalties(p domain.Preferences, o domain.TransitOption, score float64, reasons []string) (float64, []string) {
	if p.AvoidNight && (isNightHour(o.DepartureTime.Hour()) || isNightHour(o.ArrivalTime.Hour())) {
		score -= NightPenalty
		reasons = append(reasons, "night travel penalty")
	}

	if p.AvoidLongLayover && o.Transfers > 0 {
		avgSegment := float64(o.DurationMinutes) / float64(o.Transfers+1)
		if avgSegment > longLayoverMinutes {
			score -= LongLayoverPenalty
			reasons = append(reasons, "long layover penalty")
		}
	}

	if !p.AllowsMode(o.TransportType) {
		score -= ModeMismatchPenalty
		reasons = append(reasons, fmt.Sprintf("%s not in preferred modes", o.TransportType))
	}

	if p.MaxTransfers != nil && o.Transfers > *p.MaxTransfers {
		score -= MaxTransfersPenalty
		reasons = append(reasons, fmt.Sprintf("transfers %d (max %d exceeded)", o.Transfers, *p.MaxTransfers))
	}

	return score, reasons
}
