package brackets

import (
	"fmt"
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntrants(n int) []models.Entrant {
	entrants := make([]models.Entrant, n)
	for i := 0; i < n; i++ {
		entrants[i] = models.Entrant{
			ID:          fmt.Sprintf("team-%d", i+1),
			DisplayName: fmt.Sprintf("Team %d", i+1),
			Seed:        i + 1,
		}
	}
	return entrants
}

func organizerOpts() Options {
	return Options{Actor: models.Actor{UserID: 1, Role: models.RoleOrganizer}}
}

// reportWinner записывает результат и падает при ошибке.
func reportWinner(t *testing.T, eng Engine, st State, ref models.MatchRef, winnerID string) State {
	t.Helper()
	next, err := eng.RecordResult(st, ref, models.MatchResult{WinnerID: winnerID})
	require.NoError(t, err)
	return next
}

func wbRef(round, number int) models.MatchRef {
	return models.MatchRef{Section: models.SectionWinners, Round: round, Number: number}
}

func lbRef(round, number int) models.MatchRef {
	return models.MatchRef{Section: models.SectionLosers, Round: round, Number: number}
}

func gfRef() models.MatchRef {
	return models.MatchRef{Section: models.SectionGrandFinal, Round: 1, Number: 1}
}

func resetRef() models.MatchRef {
	return models.MatchRef{Section: models.SectionGrandFinalReset, Round: 1, Number: 1}
}

func TestForFormatDispatch(t *testing.T) {
	cases := []struct {
		kind models.FormatKind
		name string
	}{
		{models.FormatSingleElimination, "SingleElimination"},
		{models.FormatDoubleElimination, "DoubleElimination"},
		{models.FormatSwiss, "Swiss"},
		{models.FormatGauntlet, "Gauntlet"},
	}
	for _, tc := range cases {
		eng, err := ForFormat(tc.kind)
		require.NoError(t, err)
		assert.Equal(t, tc.name, eng.Name())
	}

	_, err := ForFormat(models.FormatKind("round_robin"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// Состояние переживает сериализацию: после восстановления из JSON движок
// продолжает прогрессию с того же места.
func TestStateSurvivesSerialization(t *testing.T) {
	eng := NewSingleEliminationEngine()
	st, err := eng.Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	st = reportWinner(t, eng, st, wbRef(1, 1), "team-1")

	data, err := MarshalState(st)
	require.NoError(t, err)

	restored, err := UnmarshalState(models.FormatSingleElimination, data)
	require.NoError(t, err)

	restored = reportWinner(t, eng, restored, wbRef(1, 2), "team-4")
	restored = reportWinner(t, eng, restored, wbRef(2, 1), "team-1")
	champion, ok := restored.Champion()
	require.True(t, ok)
	assert.Equal(t, "team-1", champion)
}

func TestUnmarshalStateUnknownFormat(t *testing.T) {
	_, err := UnmarshalState(models.FormatKind("bogus"), []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// Неверный победитель не мутирует состояние ни в одном из форматов.
func TestInvalidWinnerLeavesStateUntouched(t *testing.T) {
	singleState, err := NewSingleEliminationEngine().Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)
	doubleState, err := NewDoubleEliminationEngine().Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	swissEng := NewSwissEngine()
	swissState, err := swissEng.Initialize(makeEntrants(4), organizerOpts())
	require.NoError(t, err)
	swissState, err = swissEng.GenerateNextRound(swissState)
	require.NoError(t, err)

	gauntletState, err := NewGauntletEngine().Initialize(makeEntrants(4), Options{})
	require.NoError(t, err)

	cases := []struct {
		name string
		kind models.FormatKind
		st   State
		ref  models.MatchRef
	}{
		{"single elimination", models.FormatSingleElimination, singleState, wbRef(1, 1)},
		{"double elimination", models.FormatDoubleElimination, doubleState, wbRef(1, 1)},
		{"swiss", models.FormatSwiss, swissState, models.MatchRef{Section: models.SectionSwiss, Round: 1, Number: 1}},
		{"gauntlet", models.FormatGauntlet, gauntletState, models.MatchRef{Section: models.SectionGauntlet, Round: 1, Number: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng, err := ForFormat(tc.kind)
			require.NoError(t, err)

			before, err := MarshalState(tc.st)
			require.NoError(t, err)

			_, err = eng.RecordResult(tc.st, tc.ref, models.MatchResult{WinnerID: "nobody"})
			assert.ErrorIs(t, err, ErrInvalidWinner)

			after, err := MarshalState(tc.st)
			require.NoError(t, err)
			assert.Equal(t, before, after, "state must stay byte-for-byte identical after a failed call")
		})
	}
}
