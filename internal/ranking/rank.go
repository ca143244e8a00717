// Package ranking scores transit options against a user's preferences and
// orders them best first.
//
// Rank is a pure function: it keeps no state between calls and is safe for
// concurrent use.
package ranking

import (
	"math"
	"slices"
	"strings"

	"github.com/pkordes/detour/internal/domain"
)

// Rank scores every option and returns them sorted by score, highest first.
// The result always has the same length as options; equal scores keep their
// input order. An empty batch returns an empty, non-nil slice.
//
// Scores are not clamped: compounding penalties can push a score below zero.
func Rank(options []domain.TransitOption, prefs domain.Preferences) []domain.ScoredOption {
	if len(options) == 0 {
		return []domain.ScoredOption{}
	}

	b := normalize(options)
	scored := make([]domain.ScoredOption, 0, len(options))
	for _, o := range options {
		score, fragment := goalScore(prefs.PrimaryGoal, b, o)
		score, reasons := applyPenalties(prefs, o, score, []string{fragment})
		scored = append(scored, domain.ScoredOption{
			Option:       o,
			Score:        round2(score),
			ScoreExplain: strings.Join(reasons, domain.ExplainSeparator),
		})
	}

	slices.SortStableFunc(scored, func(a, b domain.ScoredOption) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return scored
}

// Best returns the top ranked option, or false for an empty batch.
func Best(options []domain.TransitOption, prefs domain.Preferences) (domain.ScoredOption, bool) {
	ranked := Rank(options, prefs)
	if len(ranked) == 0 {
		return domain.ScoredOption{}, false
	}
	return ranked[0], true
}

// round2 rounds to two decimals, ties to even.
func round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}
