package ranking

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pkordes/detour/internal/domain"
)

// Comfort composite weights.
const (
	comfortDurationWeight = 0.4
	comfortPriceWeight    = 0.2
	comfortTransferWeight = 0.4
)

var printer = message.NewPrinter(language.English)

// goalScore returns the base score of o for goal and the fragment naming the
// metric that produced it. Unknown goals score as fastest.
func goalScore(goal domain.PrimaryGoal, b bounds, o domain.TransitOption) (float64, string) {
	switch goal {
	case domain.Cheapest:
		return 100 * b.priceScore(o), priceFragment(o)
	case domain.LeastTransfers:
		return 100 * b.transferScore(o), fmt.Sprintf("transfers %d", o.Transfers)
	case domain.Comfort:
		composite := comfortDurationWeight*b.durationScore(o) +
			comfortPriceWeight*b.priceScore(o) +
			comfortTransferWeight*b.transferScore(o)
		return 100 * composite, "comfort composite"
	default:
		return 100 * b.durationScore(o), fmt.Sprintf("duration %d min", o.DurationMinutes)
	}
}

// priceFragment renders the price with thousands grouping and no decimals,
// e.g. "price 47,000 KRW".
func priceFragment(o domain.TransitOption) string {
	s := printer.Sprintf("price %.0f", o.Price)
	if o.Currency != "" {
		s += " " + o.Currency
	}
	return s
}
