package brackets

import (
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleEliminationInitialize(t *testing.T) {
	eng := NewDoubleEliminationEngine()

	st, err := eng.Initialize(makeEntrants(8), Options{})
	require.NoError(t, err)

	bs := st.(*BracketState)
	assert.Equal(t, 3, bs.Rounds)
	assert.Equal(t, 4, bs.LoserRounds)

	// Верхняя сетка 7 + нижняя 2+2+1+1 + гранд-финал + reset.
	assert.Len(t, bs.Matches, 15)
	assert.Len(t, bs.roundMatches(models.SectionLosers, 1), 2)
	assert.Len(t, bs.roundMatches(models.SectionLosers, 2), 2)
	assert.Len(t, bs.roundMatches(models.SectionLosers, 3), 1)
	assert.Len(t, bs.roundMatches(models.SectionLosers, 4), 1)

	assert.Equal(t, models.MatchStatusWaiting, bs.findMatch(gfRef()).Status)
	assert.Equal(t, models.MatchStatusWaiting, bs.findMatch(resetRef()).Status)

	_, err = eng.Initialize(makeEntrants(6), Options{})
	assert.ErrorIs(t, err, ErrBracketSizeUnsupported)
	_, err = eng.Initialize(makeEntrants(1), Options{})
	assert.ErrorIs(t, err, ErrInvalidEntrantCount)
}

// Полный розыгрыш на четырёх участниках с проверкой маршрутов:
// проигравшие верхней сетки спускаются вниз, финалист нижней сетки
// попадает в слот B гранд-финала.
func TestDoubleEliminationFourTeamRouting(t *testing.T) {
	eng := NewDoubleEliminationEngine()
	st, err := eng.Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	st = reportWinner(t, eng, st, wbRef(1, 1), "team-1") // team-2 вниз
	st = reportWinner(t, eng, st, wbRef(1, 2), "team-3") // team-4 вниз

	bs := st.(*BracketState)
	lb1 := bs.findMatch(lbRef(1, 1))
	assert.Equal(t, "team-2", lb1.SlotA)
	assert.Equal(t, "team-4", lb1.SlotB)
	assert.Equal(t, models.MatchStatusPending, lb1.Status)

	st = reportWinner(t, eng, st, wbRef(2, 1), "team-1") // team-3 в LB2 слот B
	st = reportWinner(t, eng, st, lbRef(1, 1), "team-2")

	bs = st.(*BracketState)
	lb2 := bs.findMatch(lbRef(2, 1))
	assert.Equal(t, "team-2", lb2.SlotA)
	assert.Equal(t, "team-3", lb2.SlotB)

	st = reportWinner(t, eng, st, lbRef(2, 1), "team-2")

	gf := st.(*BracketState).findMatch(gfRef())
	assert.Equal(t, "team-1", gf.SlotA, "winners final champion keeps the undefeated slot")
	assert.Equal(t, "team-2", gf.SlotB, "losers final champion enters slot B")
	assert.Equal(t, models.MatchStatusPending, gf.Status)
	assert.False(t, st.Terminal())
}

// Победа непобеждённого пути завершает турнир сразу, reset не играется.
func TestDoubleEliminationGrandFinalUpperWin(t *testing.T) {
	eng := NewDoubleEliminationEngine()
	st := playToGrandFinal(t, eng)

	st = reportWinner(t, eng, st, gfRef(), "team-1")

	assert.True(t, st.Terminal())
	champion, ok := st.Champion()
	require.True(t, ok)
	assert.Equal(t, "team-1", champion)

	reset := st.(*BracketState).findMatch(resetRef())
	assert.Equal(t, models.MatchStatusWaiting, reset.Status, "reset must not activate")
	assert.Empty(t, reset.SlotA)
}

// Победа нижнего пути активирует reset: обе стороны играют ещё раз,
// и только победитель reset становится чемпионом.
func TestDoubleEliminationGrandFinalReset(t *testing.T) {
	eng := NewDoubleEliminationEngine()
	st := playToGrandFinal(t, eng)

	st = reportWinner(t, eng, st, gfRef(), "team-2")
	assert.False(t, st.Terminal(), "losers path must win twice")

	reset := st.(*BracketState).findMatch(resetRef())
	require.Equal(t, models.MatchStatusPending, reset.Status)
	assert.Equal(t, "team-1", reset.SlotA)
	assert.Equal(t, "team-2", reset.SlotB)

	st = reportWinner(t, eng, st, resetRef(), "team-2")
	assert.True(t, st.Terminal())
	champion, ok := st.Champion()
	require.True(t, ok)
	assert.Equal(t, "team-2", champion)
}

// playToGrandFinal доводит турнир четырёх участников до гранд-финала
// team-1 (верхний путь) против team-2 (нижний путь).
func playToGrandFinal(t *testing.T, eng *DoubleEliminationEngine) State {
	t.Helper()
	st, err := eng.Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	st = reportWinner(t, eng, st, wbRef(1, 1), "team-1")
	st = reportWinner(t, eng, st, wbRef(1, 2), "team-3")
	st = reportWinner(t, eng, st, wbRef(2, 1), "team-1")
	st = reportWinner(t, eng, st, lbRef(1, 1), "team-2")
	st = reportWinner(t, eng, st, lbRef(2, 1), "team-2")
	return st
}

// Гранд-финал недостижим, пока обе сетки не доиграны.
func TestDoubleEliminationGrandFinalWaits(t *testing.T) {
	eng := NewDoubleEliminationEngine()
	st, err := eng.Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	_, err = eng.RecordResult(st, gfRef(), models.MatchResult{WinnerID: "team-1"})
	assert.ErrorIs(t, err, ErrMatchNotPlayable)

	st = reportWinner(t, eng, st, wbRef(1, 1), "team-1")
	st = reportWinner(t, eng, st, wbRef(1, 2), "team-3")
	st = reportWinner(t, eng, st, wbRef(2, 1), "team-1")

	// Верхняя сетка доиграна, нижняя — нет.
	_, err = eng.RecordResult(st, gfRef(), models.MatchResult{WinnerID: "team-1"})
	assert.ErrorIs(t, err, ErrMatchNotPlayable)
}

func TestDoubleEliminationTwoEntrants(t *testing.T) {
	eng := NewDoubleEliminationEngine()
	st, err := eng.Initialize(makeEntrants(2), Options{})
	require.NoError(t, err)

	bs := st.(*BracketState)
	assert.Equal(t, 0, bs.LoserRounds)

	st = reportWinner(t, eng, st, wbRef(1, 1), "team-1")

	gf := st.(*BracketState).findMatch(gfRef())
	assert.Equal(t, "team-1", gf.SlotA)
	assert.Equal(t, "team-2", gf.SlotB)
	assert.Equal(t, models.MatchStatusPending, gf.Status)

	st = reportWinner(t, eng, st, gfRef(), "team-2")
	assert.False(t, st.Terminal())
	st = reportWinner(t, eng, st, resetRef(), "team-2")

	champion, ok := st.Champion()
	require.True(t, ok)
	assert.Equal(t, "team-2", champion)
}

// Восемь участников, везде побеждает младший номер: проверяем зеркальный
// спуск из чётных раундов верхней сетки и финальную таблицу.
func TestDoubleEliminationEightTeamRun(t *testing.T) {
	eng := NewDoubleEliminationEngine()
	st, err := eng.Initialize(makeEntrants(8), Options{})
	require.NoError(t, err)

	st = reportWinner(t, eng, st, wbRef(1, 1), "team-1")
	st = reportWinner(t, eng, st, wbRef(1, 2), "team-3")
	st = reportWinner(t, eng, st, wbRef(1, 3), "team-5")
	st = reportWinner(t, eng, st, wbRef(1, 4), "team-7")

	st = reportWinner(t, eng, st, wbRef(2, 1), "team-1")
	st = reportWinner(t, eng, st, wbRef(2, 2), "team-5")

	// Проигравшие чётного раунда верхней сетки заходят зеркально:
	// из WB2-1 (team-3) — в LB2-2, из WB2-2 (team-7) — в LB2-1.
	bs := st.(*BracketState)
	assert.Equal(t, "team-3", bs.findMatch(lbRef(2, 2)).SlotB)
	assert.Equal(t, "team-7", bs.findMatch(lbRef(2, 1)).SlotB)

	st = reportWinner(t, eng, st, lbRef(1, 1), "team-2")
	st = reportWinner(t, eng, st, lbRef(1, 2), "team-6")
	st = reportWinner(t, eng, st, lbRef(2, 1), "team-2")
	st = reportWinner(t, eng, st, lbRef(2, 2), "team-3")
	st = reportWinner(t, eng, st, lbRef(3, 1), "team-2")

	st = reportWinner(t, eng, st, wbRef(3, 1), "team-1")
	bs = st.(*BracketState)
	assert.Equal(t, "team-5", bs.findMatch(lbRef(4, 1)).SlotB)

	st = reportWinner(t, eng, st, lbRef(4, 1), "team-2")
	st = reportWinner(t, eng, st, gfRef(), "team-1")

	require.True(t, st.Terminal())
	champion, _ := st.Champion()
	assert.Equal(t, "team-1", champion)

	standings, err := eng.Standings(st)
	require.NoError(t, err)
	require.Len(t, standings, 8)

	assert.Equal(t, "team-1", standings[0].EntrantID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "team-2", standings[1].EntrantID)
	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, "team-5", standings[2].EntrantID)
	assert.Equal(t, 3, standings[2].Rank)
	assert.Equal(t, "team-3", standings[3].EntrantID)
	assert.Equal(t, 4, standings[3].Rank)

	// Выбывшие в одном раунде нижней сетки делят место.
	assert.Equal(t, 5, standings[4].Rank)
	assert.Equal(t, 5, standings[5].Rank)
	assert.ElementsMatch(t,
		[]string{"team-6", "team-7"},
		[]string{standings[4].EntrantID, standings[5].EntrantID})
	assert.Equal(t, 7, standings[6].Rank)
	assert.Equal(t, 7, standings[7].Rank)
	assert.ElementsMatch(t,
		[]string{"team-4", "team-8"},
		[]string{standings[6].EntrantID, standings[7].EntrantID})
}
