package brackets

import (
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gauntletRef(number int) models.MatchRef {
	return models.MatchRef{Section: models.SectionGauntlet, Round: 1, Number: number}
}

func TestGauntletInitialize(t *testing.T) {
	eng := NewGauntletEngine()

	st, err := eng.Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	gs := st.(*GauntletState)
	assert.Equal(t, "team-1", gs.ChampionID, "default champion is the top seed")
	assert.Equal(t, []string{"team-2", "team-3", "team-4"}, gs.Challengers)
	require.Len(t, gs.Matches, 3)

	first := gs.Matches[0]
	assert.Equal(t, "team-1", first.SlotA)
	assert.Equal(t, "team-2", first.SlotB)
	assert.Equal(t, models.MatchStatusPending, first.Status)

	// Остальные матчи ждут исхода текущей защиты.
	for _, m := range gs.Matches[1:] {
		assert.Empty(t, m.SlotA)
		assert.Equal(t, models.MatchStatusWaiting, m.Status)
	}

	_, err = eng.Initialize(makeEntrants(1), Options{})
	assert.ErrorIs(t, err, ErrInvalidEntrantCount)
}

func TestGauntletInitializeExplicitChampion(t *testing.T) {
	eng := NewGauntletEngine()

	st, err := eng.Initialize(makeEntrants(4), Options{
		Gauntlet: GauntletOptions{ChampionID: "team-3"},
	})
	require.NoError(t, err)

	gs := st.(*GauntletState)
	assert.Equal(t, "team-3", gs.ChampionID)
	assert.Equal(t, []string{"team-1", "team-2", "team-4"}, gs.Challengers)

	_, err = eng.Initialize(makeEntrants(4), Options{
		Gauntlet: GauntletOptions{ChampionID: "team-9"},
	})
	assert.ErrorIs(t, err, ErrChampionNotFound)
}

func TestGauntletChallengerOrders(t *testing.T) {
	eng := NewGauntletEngine()
	entrants := makeEntrants(5)

	t.Run("reverse seeded", func(t *testing.T) {
		st, err := eng.Initialize(entrants, Options{
			Gauntlet: GauntletOptions{Order: OrderReverseSeeded},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"team-5", "team-4", "team-3", "team-2"},
			st.(*GauntletState).Challengers)
	})

	t.Run("random is reproducible", func(t *testing.T) {
		opts := Options{Gauntlet: GauntletOptions{Order: OrderRandom, RandSeed: 42}}
		a, err := eng.Initialize(entrants, opts)
		require.NoError(t, err)
		b, err := eng.Initialize(entrants, opts)
		require.NoError(t, err)
		assert.Equal(t, a.(*GauntletState).Challengers, b.(*GauntletState).Challengers)
		assert.ElementsMatch(t, []string{"team-2", "team-3", "team-4", "team-5"},
			a.(*GauntletState).Challengers)
	})

	t.Run("manual", func(t *testing.T) {
		st, err := eng.Initialize(entrants, Options{
			Gauntlet: GauntletOptions{
				Order:         OrderManual,
				ChallengerIDs: []string{"team-4", "team-2", "team-5", "team-3"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"team-4", "team-2", "team-5", "team-3"},
			st.(*GauntletState).Challengers)
	})

	t.Run("manual must be a permutation", func(t *testing.T) {
		_, err := eng.Initialize(entrants, Options{
			Gauntlet: GauntletOptions{
				Order:         OrderManual,
				ChallengerIDs: []string{"team-4", "team-4", "team-5", "team-3"},
			},
		})
		assert.ErrorIs(t, err, ErrInvalidChallengerOrder)

		_, err = eng.Initialize(entrants, Options{
			Gauntlet: GauntletOptions{Order: OrderManual, ChallengerIDs: []string{"team-2"}},
		})
		assert.ErrorIs(t, err, ErrInvalidChallengerOrder)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := eng.Initialize(entrants, Options{
			Gauntlet: GauntletOptions{Order: ChallengerOrder("bogus")},
		})
		assert.ErrorIs(t, err, ErrInvalidChallengerOrder)
	})
}

// Полный прогон: защита, смена чемпиона, финальная защита нового чемпиона.
func TestGauntletFourTeamRun(t *testing.T) {
	eng := NewGauntletEngine()
	st, err := eng.Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	st = reportWinner(t, eng, st, gauntletRef(1), "team-1") // защита
	st = reportWinner(t, eng, st, gauntletRef(2), "team-3") // смена титула

	gs := st.(*GauntletState)
	assert.Equal(t, "team-3", gs.ChampionID)
	third := gs.Matches[2]
	assert.Equal(t, "team-3", third.SlotA, "new champion defends next")
	assert.Equal(t, models.MatchStatusPending, third.Status)

	require.Len(t, gs.History, 2)
	assert.False(t, gs.History[0].ChampionChanged)
	assert.True(t, gs.History[1].ChampionChanged)
	assert.Equal(t, "team-1", gs.History[1].PreviousChampionID)

	st = reportWinner(t, eng, st, gauntletRef(3), "team-3")

	require.True(t, st.Terminal())
	champion, ok := st.Champion()
	require.True(t, ok)
	assert.Equal(t, "team-3", champion)

	stats, err := eng.Stats(st)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CompletedMatches)
	assert.Equal(t, 0, stats.RemainingMatches)
	assert.Equal(t, 2, stats.TitleDefenses)
	assert.Equal(t, 1, stats.TitleChanges)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 2, stats.BestStreak)
	assert.Equal(t, "team-3", stats.BestStreakHolderID)
	assert.InDelta(t, 100.0, stats.Progress, 0.001)

	// Кто продержался дольше, тот выше: чемпион, последний выбивший,
	// и дальше в обратном порядке выбывания.
	standings, err := eng.Standings(st)
	require.NoError(t, err)
	require.Len(t, standings, 4)
	assert.Equal(t, "team-3", standings[0].EntrantID)
	assert.Equal(t, "team-4", standings[1].EntrantID)
	assert.Equal(t, "team-1", standings[2].EntrantID)
	assert.Equal(t, "team-2", standings[3].EntrantID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 4, standings[3].Rank)
	assert.Equal(t, 2, standings[0].Wins)
	assert.Equal(t, 1, standings[2].Wins)
	assert.Equal(t, 1, standings[2].Losses)
}

func TestGauntletStandingsBeforeCompletion(t *testing.T) {
	eng := NewGauntletEngine()
	st, err := eng.Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	standings, err := eng.Standings(st)
	require.NoError(t, err)
	assert.Nil(t, standings)
}

func TestGauntletSinglePendingMatch(t *testing.T) {
	eng := NewGauntletEngine()
	st, err := eng.Initialize(makeEntrants(5), Options{})
	require.NoError(t, err)

	for played := 0; played < 4; played++ {
		gs := st.(*GauntletState)
		pending := 0
		for _, m := range gs.Matches {
			if m.Status == models.MatchStatusPending {
				pending++
			}
		}
		assert.Equal(t, 1, pending)
		st = reportWinner(t, eng, st, gauntletRef(played+1), gs.ChampionID)
	}
	assert.True(t, st.Terminal())
}

func TestGauntletRecordResultErrors(t *testing.T) {
	eng := NewGauntletEngine()
	st, err := eng.Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	_, err = eng.RecordResult(st, wbRef(1, 1), models.MatchResult{WinnerID: "team-1"})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = eng.RecordResult(st, gauntletRef(9), models.MatchResult{WinnerID: "team-1"})
	assert.ErrorIs(t, err, ErrInvalidMatchNumber)

	// Будущая защита ещё не открыта.
	_, err = eng.RecordResult(st, gauntletRef(2), models.MatchResult{WinnerID: "team-3"})
	assert.ErrorIs(t, err, ErrMatchNotPlayable)

	// Победитель не из текущей пары.
	_, err = eng.RecordResult(st, gauntletRef(1), models.MatchResult{WinnerID: "team-4"})
	assert.ErrorIs(t, err, ErrInvalidWinner)

	st = reportWinner(t, eng, st, gauntletRef(1), "team-1")
	_, err = eng.RecordResult(st, gauntletRef(1), models.MatchResult{WinnerID: "team-2"})
	assert.ErrorIs(t, err, ErrMatchAlreadyCompleted)
}

// Участник, не сыгравший ни одного матча, не получает места.
func TestGauntletUnrankedEntrant(t *testing.T) {
	eng := NewGauntletEngine()

	// Два претендента, но история короткая быть не может: каждый матч
	// обязателен. Unranked достижим только для состояния, собранного
	// вне движка (например, восстановленного из старого снапшота).
	gs := &GauntletState{
		Kind:     models.FormatGauntlet,
		Entrants: makeEntrants(3),
		Matches: []*models.Match{{
			Section: models.SectionGauntlet, Round: 1, Number: 1,
			SlotA: "team-1", SlotB: "team-2",
			Status: models.MatchStatusCompleted, WinnerID: "team-1", LoserID: "team-2",
		}},
		History: []GauntletHistoryEntry{{
			MatchNumber: 1, PreviousChampionID: "team-1",
			ChallengerID: "team-2", WinnerID: "team-1",
		}},
		ChampionID:      "team-1",
		FinalChampionID: "team-1",
		Completed:       true,
	}

	standings, err := eng.Standings(gs)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, "team-3", standings[2].EntrantID)
	assert.True(t, standings[2].Unranked)
	assert.Zero(t, standings[2].Rank)
}
