package omio

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/detour/internal/domain"
)

const currency = "EUR"

var (
	clockRe    = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	priceRe    = regexp.MustCompile(`€\s*(\d+(?:[.,]\d+)?)`)
	durationRe = regexp.MustCompile(`(\d+)\s*h\s*(\d+)\s*min|(\d+)\s*h\b|(\d+)\s*min`)
	changesRe  = regexp.MustCompile(`(\d+)\s*(?:changes?|transfers?|stops?)\b`)
	directRe   = regexp.MustCompile(`(?i)\b(?:direct|nonstop)\b`)
)

// busKeywords mark a card as a coach journey. Matching is by whole word, so
// "FlixTrain" or "Business" do not count.
var busKeywords = wordsRe("bus", "flixbus", "eurolines", "blablabus", "coach")

// knownProviders is checked in order; the first whole-word match names the
// carrier.
var knownProviders = []string{
	"Deutsche Bahn", "DB", "SNCF", "Trenitalia", "Renfe", "Eurostar",
	"Thalys", "FlixBus", "FlixTrain", "RegioJet", "BlaBlaBus",
	"Italo", "SBB", "OBB", "PKP", "Czech Railways", "NS",
	"OUIGO", "Frecciarossa", "ICE", "TGV", "RailJet",
}

var providerRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(knownProviders))
	for i, name := range knownProviders {
		out[i] = wordsRe(name)
	}
	return out
}()

func wordsRe(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// parseCard reads one result card, e.g.
//
//	14:30 → 18:45
//	4h 15min · 1 change
//	Deutsche Bahn
//	€29.90
//
// The first two clock times are departure and arrival on date; an arrival at
// or before the departure is on the next day.
func parseCard(text string, date time.Time) (domain.TransitOption, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.TransitOption{}, false
	}
	clocks := clockRe.FindAllString(text, 2)
	price := priceRe.FindStringSubmatch(text)
	if len(clocks) < 2 || price == nil {
		return domain.TransitOption{}, false
	}

	dep, err := atClock(date, clocks[0])
	if err != nil {
		return domain.TransitOption{}, false
	}
	arr, err := atClock(date, clocks[1])
	if err != nil {
		return domain.TransitOption{}, false
	}
	if !arr.After(dep) {
		arr = arr.AddDate(0, 0, 1)
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(price[1], ",", "."), 64)
	if err != nil {
		return domain.TransitOption{}, false
	}

	minutes, ok := parseDuration(text)
	if !ok {
		minutes = int(arr.Sub(dep).Minutes())
	}

	carrier := detectProvider(text)
	return domain.TransitOption{
		TransportType:   detectMode(text),
		Provider:        carrier,
		DepartureTime:   dep,
		ArrivalTime:     arr,
		DurationMinutes: minutes,
		Price:           amount,
		Currency:        currency,
		Transfers:       detectTransfers(text),
		Details:         fmt.Sprintf("%s %s-%s", carrier, clocks[0], clocks[1]),
	}, true
}

func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// parseDuration reads "4h 15min", "4h" or "95min".
func parseDuration(text string) (int, bool) {
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	switch {
	case m[1] != "":
		return atoi(m[1])*60 + atoi(m[2]), true
	case m[3] != "":
		return atoi(m[3]) * 60, true
	default:
		return atoi(m[4]), true
	}
}

// detectMode defaults to train; Omio results are mostly rail.
func detectMode(text string) domain.TransportType {
	if busKeywords.MatchString(text) {
		return domain.Bus
	}
	return domain.Train
}

func detectProvider(text string) string {
	for i, re := range providerRes {
		if re.MatchString(text) {
			return knownProviders[i]
		}
	}
	return "Omio"
}

func detectTransfers(text string) int {
	if directRe.MatchString(text) {
		return 0
	}
	if m := changesRe.FindStringSubmatch(strings.ToLower(text)); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}
