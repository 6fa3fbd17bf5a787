package brackets

import (
	"math/bits"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

// BracketState — состояние элиминационного турнира (single и double).
// Набор матчей детерминирован числом участников и фиксируется при
// инициализации; дальше меняются только слоты, статусы и результаты.
type BracketState struct {
	Kind        models.FormatKind `json:"format"`
	Entrants    []models.Entrant  `json:"entrants"`
	Rounds      int               `json:"rounds"`
	LoserRounds int               `json:"loser_rounds,omitempty"`
	Matches     []*models.Match   `json:"matches"`
	ChampionID  string            `json:"champion_id,omitempty"`
	Completed   bool              `json:"completed"`
}

func (s *BracketState) FormatKind() models.FormatKind { return s.Kind }

func (s *BracketState) Terminal() bool { return s.Completed }

func (s *BracketState) Champion() (string, bool) {
	return s.ChampionID, s.Completed && s.ChampionID != ""
}

// Clone делает глубокую копию: RecordResult мутирует только копию,
// исходное состояние остаётся байт-в-байт прежним при любой ошибке.
func (s *BracketState) Clone() *BracketState {
	c := *s
	c.Entrants = make([]models.Entrant, len(s.Entrants))
	copy(c.Entrants, s.Entrants)
	c.Matches = make([]*models.Match, len(s.Matches))
	for i, m := range s.Matches {
		c.Matches[i] = m.Clone()
	}
	return &c
}

func (s *BracketState) findMatch(ref models.MatchRef) *models.Match {
	for _, m := range s.Matches {
		if m.Section == ref.Section && m.Round == ref.Round && m.Number == ref.Number {
			return m
		}
	}
	return nil
}

func (s *BracketState) roundMatches(section models.BracketSection, round int) []*models.Match {
	var out []*models.Match
	for _, m := range s.Matches {
		if m.Section == section && m.Round == round {
			out = append(out, m)
		}
	}
	return out
}

// place заполняет слот матча (section, round, number). Номер — с единицы.
func (s *BracketState) place(section models.BracketSection, round, number int, intoSlotA bool, entrantID string) {
	m := s.findMatch(models.MatchRef{Section: section, Round: round, Number: number})
	if m != nil {
		fillSlot(m, intoSlotA, entrantID)
	}
}

// eliminationStage присваивает каждому участнику числовой этап: чем позже
// выбыл, тем больше значение. Активные участники и чемпион стоят выше всех
// выбывших. Используется частичной и финальной таблицами обоих форматов.
func (s *BracketState) eliminationStage(stageOf func(m *models.Match) (int, bool)) map[string]int {
	maxStage := 1
	for _, m := range s.Matches {
		if st, ok := stageOf(m); ok && st > maxStage {
			maxStage = st
		}
	}
	alive := maxStage + 1
	top := maxStage + 2

	stages := make(map[string]int, len(s.Entrants))
	for _, e := range s.Entrants {
		stages[e.ID] = alive
	}
	for _, m := range s.Matches {
		if m.Status != models.MatchStatusCompleted || m.LoserID == "" {
			continue
		}
		if st, ok := stageOf(m); ok {
			stages[m.LoserID] = st
		}
	}
	if s.Completed && s.ChampionID != "" {
		stages[s.ChampionID] = top
	}
	return stages
}

// standingsFromStages строит таблицу: сортировка по этапу (убывание),
// внутри этапа — по сиду; участники одного этапа делят место.
func (s *BracketState) standingsFromStages(stages map[string]int) []models.Standing {
	wins := make(map[string]int, len(s.Entrants))
	losses := make(map[string]int, len(s.Entrants))
	for _, m := range s.Matches {
		if m.Status != models.MatchStatusCompleted {
			continue
		}
		if m.WinnerID != "" {
			wins[m.WinnerID]++
		}
		if m.LoserID != "" {
			losses[m.LoserID]++
		}
	}

	entrants := sortedBySeed(s.Entrants)
	sort.SliceStable(entrants, func(i, j int) bool {
		return stages[entrants[i].ID] > stages[entrants[j].ID]
	})

	standings := make([]models.Standing, 0, len(entrants))
	rank := 0
	prevStage := 0
	for i, e := range entrants {
		if i == 0 || stages[e.ID] != prevStage {
			rank = i + 1
			prevStage = stages[e.ID]
		}
		standings = append(standings, models.Standing{
			Rank:        rank,
			EntrantID:   e.ID,
			DisplayName: e.DisplayName,
			Wins:        wins[e.ID],
			Losses:      losses[e.ID],
		})
	}
	return standings
}

// bracketRounds возвращает log2(n) для степени двойки.
func bracketRounds(n int) int {
	return bits.Len(uint(n)) - 1
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
