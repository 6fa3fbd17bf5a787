package brackets

import (
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

// DoubleEliminationEngine — верхняя сетка, нижняя сетка и гранд-финал.
// Участник выбывает после второго поражения. Если финалист нижней сетки
// выигрывает первый гранд-финал, играется reset-матч: путь через нижнюю
// сетку обязан победить дважды.
//
// Топология нижней сетки для n = 2^k: раунды 1..2(k-1). Нечётные раунды
// сводят победителей предыдущего нечётного этапа (или пары проигравших
// первого раунда верхней сетки), чётные принимают выбывших из верхней
// сетки в слот B. Маршрут проигравшего детерминирован позицией его матча,
// без сканирования свободных слотов, поэтому результат не зависит от
// порядка подачи результатов.
type DoubleEliminationEngine struct{}

func NewDoubleEliminationEngine() *DoubleEliminationEngine {
	return &DoubleEliminationEngine{}
}

func (e *DoubleEliminationEngine) Name() string { return "DoubleElimination" }

// loserRoundSize — число матчей в раунде l нижней сетки: n / 2^((l+1)/2 + 1).
func loserRoundSize(n, l int) int {
	return n >> uint((l+1)/2+1)
}

func (e *DoubleEliminationEngine) Initialize(entrants []models.Entrant, _ Options) (State, error) {
	n := len(entrants)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", ErrInvalidEntrantCount, n)
	}
	if !isPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: got %d", ErrBracketSizeUnsupported, n)
	}

	seeded := sortedBySeed(entrants)
	rounds := bracketRounds(n)
	loserRounds := 0
	if rounds > 1 {
		loserRounds = 2 * (rounds - 1)
	}

	matches := buildWinnersBracket(seeded, rounds, models.SectionWinners)
	for l := 1; l <= loserRounds; l++ {
		count := loserRoundSize(n, l)
		for i := 0; i < count; i++ {
			matches = append(matches, &models.Match{
				Section: models.SectionLosers,
				Round:   l,
				Number:  i + 1,
				Status:  models.MatchStatusWaiting,
			})
		}
	}
	// Гранд-финал и reset существуют с инициализации: матчи никогда не
	// добавляются позже, меняются только их слоты и статусы.
	matches = append(matches,
		&models.Match{Section: models.SectionGrandFinal, Round: 1, Number: 1, Status: models.MatchStatusWaiting},
		&models.Match{Section: models.SectionGrandFinalReset, Round: 1, Number: 1, Status: models.MatchStatusWaiting},
	)

	st := &BracketState{
		Kind:        models.FormatDoubleElimination,
		Entrants:    seeded,
		Rounds:      rounds,
		LoserRounds: loserRounds,
		Matches:     matches,
	}
	return st, nil
}

func (e *DoubleEliminationEngine) RecordResult(st State, ref models.MatchRef, res models.MatchResult) (State, error) {
	bs, ok := st.(*BracketState)
	if !ok || bs.Kind != models.FormatDoubleElimination {
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

	switch m.Section {
	case models.SectionWinners:
		e.routeWinnersMatch(cl, m)
	case models.SectionLosers:
		e.routeLosersMatch(cl, m)
	case models.SectionGrandFinal:
		e.resolveGrandFinal(cl, m)
	case models.SectionGrandFinalReset:
		cl.ChampionID = m.WinnerID
		cl.Completed = true
	}
	return cl, nil
}

// routeWinnersMatch продвигает победителя по верхней сетке и спускает
// проигравшего в нижнюю. Проигравшие первого раунда спариваются между
// собой в раунде 1 нижней сетки; проигравший раунда r >= 2 попадает в
// слот B раунда 2(r-1). В чётных раундах верхней сетки порядок матчей
// зеркалируется, чтобы развести недавних соперников.
func (e *DoubleEliminationEngine) routeWinnersMatch(cl *BracketState, m *models.Match) {
	idx := m.Number - 1

	if m.Round < cl.Rounds {
		cl.place(models.SectionWinners, m.Round+1, idx/2+1, idx%2 == 0, m.WinnerID)
	} else {
		cl.place(models.SectionGrandFinal, 1, 1, true, m.WinnerID)
	}

	switch {
	case cl.LoserRounds == 0:
		// Два участника: проигравший единственного матча верхней сетки
		// сразу становится финалистом нижнего пути.
		cl.place(models.SectionGrandFinal, 1, 1, false, m.LoserID)
	case m.Round == 1:
		cl.place(models.SectionLosers, 1, idx/2+1, idx%2 == 0, m.LoserID)
	default:
		target := 2 * (m.Round - 1)
		number := idx + 1
		if m.Round%2 == 0 {
			number = loserRoundSize(len(cl.Entrants), target) - idx
		}
		cl.place(models.SectionLosers, target, number, false, m.LoserID)
	}
}

// routeLosersMatch продвигает победителя внутри нижней сетки: из нечётного
// раунда — в тот же индекс слота A следующего раунда, из чётного — парами
// вниз, как в верхней сетке. Победитель финала нижней сетки идёт в слот B
// гранд-финала.
func (e *DoubleEliminationEngine) routeLosersMatch(cl *BracketState, m *models.Match) {
	idx := m.Number - 1
	switch {
	case m.Round == cl.LoserRounds:
		cl.place(models.SectionGrandFinal, 1, 1, false, m.WinnerID)
	case m.Round%2 == 1:
		cl.place(models.SectionLosers, m.Round+1, idx+1, true, m.WinnerID)
	default:
		cl.place(models.SectionLosers, m.Round+1, idx/2+1, idx%2 == 0, m.WinnerID)
	}
}

// resolveGrandFinal: победа слота A (непобеждённый путь) завершает турнир
// немедленно; победа слота B активирует reset-матч с теми же участниками.
func (e *DoubleEliminationEngine) resolveGrandFinal(cl *BracketState, m *models.Match) {
	if m.WinnerID == m.SlotA {
		cl.ChampionID = m.WinnerID
		cl.Completed = true
		return
	}
	reset := cl.findMatch(models.MatchRef{Section: models.SectionGrandFinalReset, Round: 1, Number: 1})
	fillSlot(reset, true, m.SlotA)
	fillSlot(reset, false, m.WinnerID)
}

// Standings ранжирует по глубине выбывания: чемпион, затем проигравший
// решающего матча, затем раунды нижней сетки в обратном порядке.
func (e *DoubleEliminationEngine) Standings(st State) ([]models.Standing, error) {
	bs, ok := st.(*BracketState)
	if !ok || bs.Kind != models.FormatDoubleElimination {
		return nil, fmt.Errorf("%w: %s", ErrStateFormat, e.Name())
	}
	stages := bs.eliminationStage(func(m *models.Match) (int, bool) {
		switch m.Section {
		case models.SectionLosers:
			return m.Round, true
		case models.SectionGrandFinal:
			// Победа слота B не выбивает слот A: его ждёт reset-матч.
			if m.Status == models.MatchStatusCompleted && m.WinnerID == m.SlotB {
				return 0, false
			}
			return bs.LoserRounds + 1, true
		case models.SectionGrandFinalReset:
			return bs.LoserRounds + 2, true
		}
		// Поражение в верхней сетке само по себе не выбивает.
		return 0, false
	})
	return bs.standingsFromStages(stages), nil
}
