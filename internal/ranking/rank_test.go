package ranking_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/ranking"
)

// ---- helpers ---------------------------------------------------------------

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func option(tt domain.TransportType, provider string, dep time.Time, minutes int, price float64, transfers int) domain.TransitOption {
	return domain.TransitOption{
		TransportType:   tt,
		Provider:        provider,
		DepartureTime:   dep,
		ArrivalTime:     dep.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Price:           price,
		Currency:        "KRW",
		Transfers:       transfers,
	}
}

// seoulBusan is the four-option Seoul to Busan batch used across tests.
func seoulBusan() []domain.TransitOption {
	return []domain.TransitOption{
		option(domain.Flight, "Korean Air", at(8, 0), 65, 47000, 0),
		option(domain.Train, "KTX", at(9, 0), 155, 59800, 0),
		option(domain.Bus, "Express Bus", at(10, 0), 270, 23000, 0),
		option(domain.Train, "Mugunghwa Night", at(22, 30), 330, 28600, 1),
	}
}

func intPtr(n int) *int { return &n }

func findByProvider(t *testing.T, scored []domain.ScoredOption, provider string) domain.ScoredOption {
	t.Helper()
	for _, s := range scored {
		if s.Option.Provider == provider {
			return s
		}
	}
	t.Fatalf("provider %q not in ranked output", provider)
	return domain.ScoredOption{}
}

// ---- contract ---------------------------------------------------------------

func TestRank_EmptyInput(t *testing.T) {
	for _, goal := range []domain.PrimaryGoal{domain.Fastest, domain.Cheapest, domain.LeastTransfers, domain.Comfort} {
		got := ranking.Rank(nil, domain.Preferences{PrimaryGoal: goal, AvoidNight: true})
		require.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestRank_PreservesCardinalityAndOptions(t *testing.T) {
	in := seoulBusan()

	got := ranking.Rank(in, domain.Preferences{PrimaryGoal: domain.Comfort, AvoidNight: true})

	require.Len(t, got, len(in))
	out := make([]domain.TransitOption, 0, len(got))
	for _, s := range got {
		out = append(out, s.Option)
	}
	assert.ElementsMatch(t, in, out)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := seoulBusan()
	before := seoulBusan()

	_ = ranking.Rank(in, domain.Preferences{PrimaryGoal: domain.Cheapest})

	assert.Equal(t, before, in)
}

func TestRank_SortedDescending(t *testing.T) {
	prefs := domain.Preferences{
		PrimaryGoal:      domain.Comfort,
		ModePreference:   []domain.TransportType{domain.Train},
		MaxTransfers:     intPtr(0),
		AvoidNight:       true,
		AvoidLongLayover: true,
	}

	got := ranking.Rank(seoulBusan(), prefs)

	for i := 0; i < len(got)-1; i++ {
		assert.GreaterOrEqual(t, got[i].Score, got[i+1].Score, "index %d", i)
	}
}

func TestRank_SingleOptionScoresHundred(t *testing.T) {
	o := option(domain.Train, "KTX", at(9, 0), 155, 59800, 0)

	for _, goal := range []domain.PrimaryGoal{domain.Fastest, domain.Cheapest, domain.LeastTransfers, domain.Comfort} {
		got := ranking.Rank([]domain.TransitOption{o}, domain.Preferences{PrimaryGoal: goal})
		require.Len(t, got, 1)
		assert.Equal(t, 100.0, got[0].Score, "goal %s", goal)
	}
}

func TestRank_ExplanationNeverEmpty(t *testing.T) {
	for _, goal := range []domain.PrimaryGoal{domain.Fastest, domain.Cheapest, domain.LeastTransfers, domain.Comfort} {
		for _, s := range ranking.Rank(seoulBusan(), domain.Preferences{PrimaryGoal: goal}) {
			assert.NotEmpty(t, s.ScoreExplain, "goal %s provider %s", goal, s.Option.Provider)
		}
	}
}

// ---- goals ------------------------------------------------------------------

func TestRank_Fastest_FlightFirst(t *testing.T) {
	got := ranking.Rank(seoulBusan(), domain.Preferences{PrimaryGoal: domain.Fastest})

	assert.Equal(t, "Korean Air", got[0].Option.Provider)
	assert.Equal(t, 100.0, got[0].Score)
	assert.Equal(t, "duration 65 min", got[0].ScoreExplain)
}

func TestRank_Cheapest_BusFirst(t *testing.T) {
	got := ranking.Rank(seoulBusan(), domain.Preferences{PrimaryGoal: domain.Cheapest})

	assert.Equal(t, "Express Bus", got[0].Option.Provider)
	assert.Equal(t, "price 23,000 KRW", got[0].ScoreExplain)
}

func TestRank_GoalSensitivity(t *testing.T) {
	batch := []domain.TransitOption{
		option(domain.Flight, "quick", at(8, 0), 60, 100, 2),
		option(domain.Bus, "cheap", at(8, 0), 300, 10, 1),
		option(domain.Train, "direct", at(8, 0), 200, 200, 0),
	}

	tests := []struct {
		goal domain.PrimaryGoal
		want string
	}{
		{domain.Fastest, "quick"},
		{domain.Cheapest, "cheap"},
		{domain.LeastTransfers, "direct"},
	}
	for _, tc := range tests {
		t.Run(string(tc.goal), func(t *testing.T) {
			got := ranking.Rank(batch, domain.Preferences{PrimaryGoal: tc.goal})
			assert.Equal(t, tc.want, got[0].Option.Provider)
		})
	}
}

// Transfers are measured from a floor of zero, so a lone option with
// connections does not get the ideal score.
func TestRank_LeastTransfers_SingleOptionWithTransfers(t *testing.T) {
	o := option(domain.Train, "KTX", at(9, 0), 155, 59800, 2)

	got := ranking.Rank([]domain.TransitOption{o}, domain.Preferences{PrimaryGoal: domain.LeastTransfers})

	assert.Equal(t, 0.0, got[0].Score)
}

func TestRank_LeastTransfers_Fragment(t *testing.T) {
	batch := []domain.TransitOption{
		option(domain.Train, "a", at(8, 0), 100, 10, 2),
		option(domain.Train, "b", at(8, 0), 100, 10, 1),
	}

	got := ranking.Rank(batch, domain.Preferences{PrimaryGoal: domain.LeastTransfers})

	assert.Equal(t, "b", got[0].Option.Provider)
	assert.Equal(t, 50.0, got[0].Score)
	assert.Equal(t, "transfers 1", got[0].ScoreExplain)
	assert.Equal(t, 0.0, got[1].Score)
}

func TestRank_Comfort_Composite(t *testing.T) {
	batch := []domain.TransitOption{
		option(domain.Train, "slow-direct", at(8, 0), 200, 100, 0),
		option(domain.Flight, "fast-pricey", at(8, 0), 100, 200, 1),
	}

	got := ranking.Rank(batch, domain.Preferences{PrimaryGoal: domain.Comfort})

	// slow-direct: 0.4*0 + 0.2*1 + 0.4*1 = 0.6
	// fast-pricey: 0.4*1 + 0.2*0 + 0.4*0 = 0.4
	assert.Equal(t, "slow-direct", got[0].Option.Provider)
	assert.Equal(t, 60.0, got[0].Score)
	assert.Equal(t, 40.0, got[1].Score)
	assert.Equal(t, "comfort composite", got[0].ScoreExplain)
}

func TestRank_UnknownGoalFallsBackToFastest(t *testing.T) {
	got := ranking.Rank(seoulBusan(), domain.Preferences{PrimaryGoal: "scenic"})

	assert.Equal(t, "Korean Air", got[0].Option.Provider)
	assert.Equal(t, "duration 65 min", got[0].ScoreExplain)
}

func TestRank_RoundsToTwoDecimals(t *testing.T) {
	batch := []domain.TransitOption{
		option(domain.Train, "a", at(8, 0), 60, 10, 0),
		option(domain.Train, "b", at(8, 0), 90, 10, 0),
		option(domain.Train, "c", at(8, 0), 150, 10, 0),
	}

	got := ranking.Rank(batch, domain.Preferences{PrimaryGoal: domain.Fastest})

	assert.Equal(t, 66.67, findByProvider(t, got, "b").Score)
}

// ---- penalties ---------------------------------------------------------------

func TestRank_AvoidNight_ReducesOvernightByThirty(t *testing.T) {
	base := ranking.Rank(seoulBusan(), domain.Preferences{PrimaryGoal: domain.Fastest})
	night := ranking.Rank(seoulBusan(), domain.Preferences{PrimaryGoal: domain.Fastest, AvoidNight: true})

	before := findByProvider(t, base, "Mugunghwa Night")
	after := findByProvider(t, night, "Mugunghwa Night")

	assert.Equal(t, 30.0, before.Score-after.Score)
	assert.Contains(t, after.ScoreExplain, "night travel penalty")

	// daytime options are untouched
	assert.Equal(t, findByProvider(t, base, "KTX").Score, findByProvider(t, night, "KTX").Score)
}

func TestRank_AvoidNight_ArrivalOnly(t *testing.T) {
	// departs 20:00, arrives 23:00
	o := option(domain.Bus, "late", at(20, 0), 180, 10, 0)

	got := ranking.Rank([]domain.TransitOption{o}, domain.Preferences{PrimaryGoal: domain.Fastest, AvoidNight: true})

	assert.Equal(t, 70.0, got[0].Score)
}

func TestRank_AvoidNight_WindowEdges(t *testing.T) {
	tests := []struct {
		name  string
		dep   time.Time
		fires bool
	}{
		{"05:59 departure", at(5, 59), true},
		{"06:00 departure", at(6, 0), false},
		{"21:59 departure", at(21, 59), false},
		{"22:00 departure", at(22, 0), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := domain.TransitOption{TransportType: domain.Train, DepartureTime: tc.dep, ArrivalTime: at(12, 0), DurationMinutes: 60}
			got := ranking.Rank([]domain.TransitOption{o}, domain.Preferences{PrimaryGoal: domain.Fastest, AvoidNight: true})
			if tc.fires {
				assert.Equal(t, 70.0, got[0].Score)
			} else {
				assert.Equal(t, 100.0, got[0].Score)
			}
		})
	}
}

func TestRank_AvoidLongLayover(t *testing.T) {
	tests := []struct {
		name      string
		minutes   int
		transfers int
		want      float64
	}{
		{"direct long journey is never penalised", 600, 0, 100},
		{"short segments", 200, 1, 100},
		{"exactly 120 per segment", 240, 1, 100},
		{"long segments", 300, 1, 80},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := option(domain.Train, "x", at(8, 0), tc.minutes, 10, tc.transfers)
			got := ranking.Rank([]domain.TransitOption{o}, domain.Preferences{PrimaryGoal: domain.Fastest, AvoidLongLayover: true})
			assert.Equal(t, tc.want, got[0].Score)
		})
	}
}

func TestRank_ModeMismatch(t *testing.T) {
	prefs := domain.Preferences{PrimaryGoal: domain.Cheapest, ModePreference: []domain.TransportType{domain.Train, domain.Flight}}

	got := ranking.Rank(seoulBusan(), prefs)

	bus := findByProvider(t, got, "Express Bus")
	assert.Equal(t, 50.0, bus.Score)
	assert.Equal(t, "price 23,000 KRW | bus not in preferred modes", bus.ScoreExplain)
	assert.Equal(t, "Mugunghwa Night", got[0].Option.Provider)
}

func TestRank_EmptyModePreference_NoPenalty(t *testing.T) {
	prefs := domain.Preferences{PrimaryGoal: domain.Cheapest, ModePreference: []domain.TransportType{}}

	got := ranking.Rank(seoulBusan(), prefs)

	assert.Equal(t, "Express Bus", got[0].Option.Provider)
	assert.Equal(t, 100.0, got[0].Score)
}

func TestRank_MaxTransfersExceeded(t *testing.T) {
	unset := ranking.Rank(seoulBusan(), domain.Preferences{PrimaryGoal: domain.Cheapest})
	capped := ranking.Rank(seoulBusan(), domain.Preferences{PrimaryGoal: domain.Cheapest, MaxTransfers: intPtr(0)})

	before := findByProvider(t, unset, "Mugunghwa Night")
	after := findByProvider(t, capped, "Mugunghwa Night")

	assert.Less(t, after.Score, before.Score)
	assert.InDelta(t, 40.0, before.Score-after.Score, 0.001)
	assert.Contains(t, after.ScoreExplain, "exceeded")
	assert.Contains(t, after.ScoreExplain, "transfers 1 (max 0 exceeded)")
}

func TestRank_MaxTransfersNotExceeded(t *testing.T) {
	got := ranking.Rank(seoulBusan(), domain.Preferences{PrimaryGoal: domain.Fastest, MaxTransfers: intPtr(1)})

	for _, s := range got {
		assert.NotContains(t, s.ScoreExplain, "exceeded")
	}
}

func TestRank_PenaltiesStackInOrderAndGoNegative(t *testing.T) {
	o := option(domain.Bus, "red-eye", at(23, 0), 300, 10, 1)
	prefs := domain.Preferences{
		PrimaryGoal:      domain.Fastest,
		ModePreference:   []domain.TransportType{domain.Train},
		MaxTransfers:     intPtr(0),
		AvoidNight:       true,
		AvoidLongLayover: true,
	}

	got := ranking.Rank([]domain.TransitOption{o}, prefs)

	assert.Equal(t, -40.0, got[0].Score)
	assert.Equal(t,
		"duration 300 min | night travel penalty | long layover penalty | bus not in preferred modes | transfers 1 (max 0 exceeded)",
		got[0].ScoreExplain)
}

// ---- ordering ---------------------------------------------------------------

func TestRank_TiesKeepInputOrder(t *testing.T) {
	batch := []domain.TransitOption{
		option(domain.Train, "first", at(8, 0), 100, 10, 0),
		option(domain.Bus, "second", at(9, 0), 100, 10, 0),
		option(domain.Flight, "third", at(10, 0), 100, 10, 0),
	}

	got := ranking.Rank(batch, domain.Preferences{PrimaryGoal: domain.Fastest})

	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Option.Provider)
	assert.Equal(t, "second", got[1].Option.Provider)
	assert.Equal(t, "third", got[2].Option.Provider)
}

func TestBest(t *testing.T) {
	_, ok := ranking.Best(nil, domain.DefaultPreferences())
	assert.False(t, ok)

	top, ok := ranking.Best(seoulBusan(), domain.DefaultPreferences())
	require.True(t, ok)
	assert.Equal(t, "Korean Air", top.Option.Provider)
}

// ---- concurrency --------------------------------------------------------------

func TestRank_ConcurrentCallsShareInput(t *testing.T) {
	batch := seoulBusan()
	prefs := domain.Preferences{
		PrimaryGoal:    domain.Comfort,
		AvoidNight:     true,
		ModePreference: []domain.TransportType{domain.Train},
	}
	want := ranking.Rank(batch, prefs)

	var wg sync.WaitGroup
	results := make([][]domain.ScoredOption, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = ranking.Rank(batch, prefs)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
	assert.Equal(t, seoulBusan(), batch, "input batch is not modified")
}
