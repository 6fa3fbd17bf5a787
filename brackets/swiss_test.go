package brackets

import (
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swissRef(round, number int) models.MatchRef {
	return models.MatchRef{Section: models.SectionSwiss, Round: round, Number: number}
}

func TestSwissInitialize(t *testing.T) {
	eng := NewSwissEngine()

	st, err := eng.Initialize(makeEntrants(8), organizerOpts())
	require.NoError(t, err)

	ss := st.(*SwissState)
	assert.Equal(t, 3, ss.TotalRounds)
	assert.Empty(t, ss.Rounds, "rounds are created on demand")
	require.Len(t, ss.Records, 8)
	for _, rec := range ss.Records {
		assert.Zero(t, rec.Wins)
		assert.Zero(t, rec.Buchholz)
	}
}

// Запуск — операция организатора.
func TestSwissInitializeRequiresOrganizer(t *testing.T) {
	eng := NewSwissEngine()

	_, err := eng.Initialize(makeEntrants(4), Options{})
	assert.ErrorIs(t, err, ErrOrganizerOnly)

	player := Options{Actor: models.Actor{UserID: 2, Role: models.RolePlayer}}
	_, err = eng.Initialize(makeEntrants(4), player)
	assert.ErrorIs(t, err, ErrOrganizerOnly)
}

func TestSwissInitializeEntrantCount(t *testing.T) {
	eng := NewSwissEngine()

	_, err := eng.Initialize(makeEntrants(1), organizerOpts())
	assert.ErrorIs(t, err, ErrInvalidEntrantCount)

	// Нечётное число участников не спаривается без bye.
	_, err = eng.Initialize(makeEntrants(5), organizerOpts())
	assert.ErrorIs(t, err, ErrInvalidEntrantCount)
}

// Первый раунд сводит верхнюю половину сида с нижней.
func TestSwissFirstRoundPairing(t *testing.T) {
	eng := NewSwissEngine()
	st, err := eng.Initialize(makeEntrants(8), organizerOpts())
	require.NoError(t, err)

	st, err = eng.GenerateNextRound(st)
	require.NoError(t, err)

	ss := st.(*SwissState)
	require.Len(t, ss.Rounds, 1)
	matches := ss.Rounds[0].Matches
	require.Len(t, matches, 4)
	assert.Equal(t, "team-1", matches[0].SlotA)
	assert.Equal(t, "team-5", matches[0].SlotB)
	assert.Equal(t, "team-4", matches[3].SlotA)
	assert.Equal(t, "team-8", matches[3].SlotB)
}

func TestSwissNextRoundWaitsForResults(t *testing.T) {
	eng := NewSwissEngine()
	st, err := eng.Initialize(makeEntrants(4), organizerOpts())
	require.NoError(t, err)

	st, err = eng.GenerateNextRound(st)
	require.NoError(t, err)

	_, err = eng.GenerateNextRound(st)
	assert.ErrorIs(t, err, ErrRoundIncomplete)
}

// Полный турнир четырёх участников: два раунда, пары по текущему счёту
// без повторных встреч, Buchholz как сумма побед соперников.
func TestSwissFourTeamRun(t *testing.T) {
	eng := NewSwissEngine()
	st, err := eng.Initialize(makeEntrants(4), organizerOpts())
	require.NoError(t, err)

	st, err = eng.GenerateNextRound(st)
	require.NoError(t, err)

	two, zero := 2, 0
	st, err = eng.RecordResult(st, swissRef(1, 1), models.MatchResult{
		WinnerID: "team-1", ScoreA: &two, ScoreB: &zero,
	})
	require.NoError(t, err)
	st = reportWinner(t, eng, st, swissRef(1, 2), "team-4")

	ss := st.(*SwissState)
	m := ss.findMatch(swissRef(1, 1))
	require.NotNil(t, m.ScoreA)
	assert.Equal(t, 2, *m.ScoreA)
	assert.Equal(t, "team-1", m.WinnerID)
	assert.Equal(t, 1, ss.Records["team-3"].Buchholz, "opponent team-1 has one win")

	st, err = eng.GenerateNextRound(st)
	require.NoError(t, err)

	// Победители играют между собой, проигравшие — между собой.
	ss = st.(*SwissState)
	require.Len(t, ss.Rounds, 2)
	r2 := ss.Rounds[1].Matches
	require.Len(t, r2, 2)
	assert.Equal(t, "team-1", r2[0].SlotA)
	assert.Equal(t, "team-4", r2[0].SlotB)
	assert.Equal(t, "team-2", r2[1].SlotA)
	assert.Equal(t, "team-3", r2[1].SlotB)

	st = reportWinner(t, eng, st, swissRef(2, 1), "team-1")
	st = reportWinner(t, eng, st, swissRef(2, 2), "team-3")

	// Раунды исчерпаны: следующий вызов закрывает турнир.
	st, err = eng.GenerateNextRound(st)
	require.NoError(t, err)
	assert.True(t, st.Terminal())

	champion, ok := st.Champion()
	require.True(t, ok)
	assert.Equal(t, "team-1", champion)

	standings, err := eng.Standings(st)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	assert.Equal(t, "team-1", standings[0].EntrantID)
	assert.Equal(t, 2, standings[0].Wins)
	assert.Equal(t, 2, standings[0].Buchholz)

	// team-3 и team-4 равны по всем показателям, исходный сид решает.
	assert.Equal(t, "team-3", standings[1].EntrantID)
	assert.Equal(t, "team-4", standings[2].EntrantID)
	assert.Equal(t, "team-2", standings[3].EntrantID)
	for _, s := range standings {
		assert.Equal(t, 2, s.Buchholz)
	}
}

// Равный счёт — ничья: победителя нет, обе записи получают draw.
func TestSwissDraw(t *testing.T) {
	eng := NewSwissEngine()
	st, err := eng.Initialize(makeEntrants(4), organizerOpts())
	require.NoError(t, err)
	st, err = eng.GenerateNextRound(st)
	require.NoError(t, err)

	one := 1
	st, err = eng.RecordResult(st, swissRef(1, 1), models.MatchResult{ScoreA: &one, ScoreB: &one})
	require.NoError(t, err)

	ss := st.(*SwissState)
	m := ss.findMatch(swissRef(1, 1))
	assert.Equal(t, models.MatchStatusCompleted, m.Status)
	assert.Empty(t, m.WinnerID)
	assert.Equal(t, 1, ss.Records["team-1"].Draws)
	assert.Equal(t, 1, ss.Records["team-3"].Draws)
	assert.Zero(t, ss.Records["team-1"].Wins)
}

func TestSwissRecordResultErrors(t *testing.T) {
	eng := NewSwissEngine()
	st, err := eng.Initialize(makeEntrants(4), organizerOpts())
	require.NoError(t, err)
	st, err = eng.GenerateNextRound(st)
	require.NoError(t, err)

	_, err = eng.RecordResult(st, swissRef(3, 1), models.MatchResult{WinnerID: "team-1"})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = eng.RecordResult(st, swissRef(1, 1), models.MatchResult{WinnerID: "team-2"})
	assert.ErrorIs(t, err, ErrInvalidWinner)

	st = reportWinner(t, eng, st, swissRef(1, 1), "team-1")
	_, err = eng.RecordResult(st, swissRef(1, 1), models.MatchResult{WinnerID: "team-3"})
	assert.ErrorIs(t, err, ErrMatchAlreadyCompleted)
}

// Когда легальной пары нет, допускается повторная встреча — турнир не
// должен застревать из-за истории встреч.
func TestSwissRematchFallback(t *testing.T) {
	eng := NewSwissEngine()
	ss := &SwissState{
		Kind:     models.FormatSwiss,
		Entrants: makeEntrants(2),
		Records: map[string]*SwissRecord{
			"team-1": {EntrantID: "team-1", Wins: 1, Opponents: []string{"team-2"}},
			"team-2": {EntrantID: "team-2", Losses: 1, Opponents: []string{"team-1"}},
		},
		Rounds: []*SwissRound{{
			Number: 1,
			Matches: []*models.Match{{
				Section: models.SectionSwiss, Round: 1, Number: 1,
				SlotA: "team-1", SlotB: "team-2",
				Status: models.MatchStatusCompleted, WinnerID: "team-1",
			}},
		}},
		TotalRounds: 2,
	}

	st, err := eng.GenerateNextRound(ss)
	require.NoError(t, err)

	next := st.(*SwissState)
	require.Len(t, next.Rounds, 2)
	m := next.Rounds[1].Matches[0]
	assert.Equal(t, "team-1", m.SlotA)
	assert.Equal(t, "team-2", m.SlotB)
}

func TestSwissRecalculate(t *testing.T) {
	ss := &SwissState{
		Kind: models.FormatSwiss,
		Records: map[string]*SwissRecord{
			"a": {EntrantID: "a", Wins: 2, Opponents: []string{"b", "c"}},
			"b": {EntrantID: "b", Wins: 1, Opponents: []string{"a", "c"}},
			"c": {EntrantID: "c", Wins: 0, Opponents: []string{"b", "a"}},
		},
	}

	Recalculate(ss)

	assert.Equal(t, 1, ss.Records["a"].Buchholz)
	assert.Equal(t, 2, ss.Records["b"].Buchholz)
	assert.Equal(t, 3, ss.Records["c"].Buchholz)
}
