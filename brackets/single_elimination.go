package brackets

import (
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

// SingleEliminationEngine — победитель проходит в следующий раунд,
// проигравший выбывает. Для n = 2^k участников строится k раундов и
// ровно n-1 матчей.
type SingleEliminationEngine struct{}

func NewSingleEliminationEngine() *SingleEliminationEngine {
	return &SingleEliminationEngine{}
}

func (e *SingleEliminationEngine) Name() string { return "SingleElimination" }

// Initialize строит полную сетку. Первый раунд спаривает участников
// последовательно в порядке сида (seed1 vs seed2, seed3 vs seed4, ...) —
// детерминированно и воспроизводимо. Bye-слоты не поддерживаются: число
// участников обязано быть степенью двойки.
func (e *SingleEliminationEngine) Initialize(entrants []models.Entrant, _ Options) (State, error) {
	n := len(entrants)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", ErrInvalidEntrantCount, n)
	}
	if !isPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: got %d", ErrBracketSizeUnsupported, n)
	}

	seeded := sortedBySeed(entrants)
	rounds := bracketRounds(n)

	st := &BracketState{
		Kind:     models.FormatSingleElimination,
		Entrants: seeded,
		Rounds:   rounds,
		Matches:  buildWinnersBracket(seeded, rounds, models.SectionWinners),
	}
	return st, nil
}

// buildWinnersBracket создаёт раунды 1..rounds: первый раунд открыт,
// дальнейшие ждут победителей. Используется и двойной элиминацией.
func buildWinnersBracket(seeded []models.Entrant, rounds int, section models.BracketSection) []*models.Match {
	n := len(seeded)
	matches := make([]*models.Match, 0, n-1)
	for i := 0; i < n/2; i++ {
		matches = append(matches, &models.Match{
			Section: section,
			Round:   1,
			Number:  i + 1,
			SlotA:   seeded[2*i].ID,
			SlotB:   seeded[2*i+1].ID,
			Status:  models.MatchStatusPending,
		})
	}
	for r := 2; r <= rounds; r++ {
		count := n >> uint(r)
		for i := 0; i < count; i++ {
			matches = append(matches, &models.Match{
				Section: section,
				Round:   r,
				Number:  i + 1,
				Status:  models.MatchStatusWaiting,
			})
		}
	}
	return matches
}

// RecordResult фиксирует исход и продвигает победителя: матч с индексом i
// в раунде r отправляет победителя в матч i/2 раунда r+1, в слот A при
// чётном i, иначе в слот B. Победитель финала — чемпион.
func (e *SingleEliminationEngine) RecordResult(st State, ref models.MatchRef, res models.MatchResult) (State, error) {
	bs, ok := st.(*BracketState)
	if !ok || bs.Kind != models.FormatSingleElimination {
		return nil, fmt.Errorf("%w: %s", ErrStateFormat, e.Name())
	}

	cl := bs.Clone()
	m := cl.findMatch(ref)
	if m == nil {
		return nil, fmt.Errorf("%w: %s round %d match %d", ErrMatchNotFound, ref.Section, ref.Round, ref.Number)
	}
	if err := applyResult(m, res); err != nil {
		return nil, err
	}

	if m.Round < cl.Rounds {
		idx := m.Number - 1
		cl.place(models.SectionWinners, m.Round+1, idx/2+1, idx%2 == 0, m.WinnerID)
	} else {
		cl.ChampionID = m.WinnerID
		cl.Completed = true
	}
	return cl, nil
}

// Standings — частичная таблица доступна в любой момент: участники
// ранжируются по раунду выбывания, ещё не выбывшие стоят выше всех,
// чемпион — первым.
func (e *SingleEliminationEngine) Standings(st State) ([]models.Standing, error) {
	bs, ok := st.(*BracketState)
	if !ok || bs.Kind != models.FormatSingleElimination {
		return nil, fmt.Errorf("%w: %s", ErrStateFormat, e.Name())
	}
	stages := bs.eliminationStage(func(m *models.Match) (int, bool) {
		return m.Round, true
	})
	return bs.standingsFromStages(stages), nil
}
