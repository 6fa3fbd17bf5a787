package brackets

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Dosada05/bracket-engine/models"
)

// ChallengerOrder задаёт порядок очереди претендентов.
type ChallengerOrder string

const (
	OrderSeeded        ChallengerOrder = "seeded"         // по сиду
	OrderReverseSeeded ChallengerOrder = "reverse_seeded" // от нижнего сида к верхнему
	OrderRandom        ChallengerOrder = "random"         // перемешивание Фишера-Йетса
	OrderManual        ChallengerOrder = "manual"         // порядок задаёт вызывающий
)

// GauntletOptions — параметры инициализации гаунтлета. Пустой ChampionID
// означает "чемпион — участник с верхним сидом". RandSeed фиксирует
// генератор для воспроизводимых перемешиваний; ноль — сид от времени.
type GauntletOptions struct {
	ChampionID    string          `json:"champion_id,omitempty"`
	Order         ChallengerOrder `json:"order,omitempty"`
	ChallengerIDs []string        `json:"challenger_ids,omitempty"`
	RandSeed      int64           `json:"rand_seed,omitempty"`
}

// GauntletHistoryEntry — одна защита титула. История append-only, её длина
// всегда равна числу сыгранных матчей.
type GauntletHistoryEntry struct {
	MatchNumber        int    `json:"match_number"`
	PreviousChampionID string `json:"previous_champion_id"`
	ChallengerID       string `json:"challenger_id"`
	WinnerID           string `json:"winner_id"`
	ChampionChanged    bool   `json:"champion_changed"`
}

// GauntletState — действующий чемпион против очереди претендентов.
// До терминального состояния ровно один матч открыт — текущая защита.
type GauntletState struct {
	Kind            models.FormatKind      `json:"format"`
	Entrants        []models.Entrant       `json:"entrants"`
	ChampionID      string                 `json:"champion_id"`
	Challengers     []string               `json:"challengers"`
	Matches         []*models.Match        `json:"matches"`
	History         []GauntletHistoryEntry `json:"history"`
	FinalChampionID string                 `json:"final_champion_id,omitempty"`
	Completed       bool                   `json:"completed"`
}

func (s *GauntletState) FormatKind() models.FormatKind { return s.Kind }

func (s *GauntletState) Terminal() bool { return s.Completed }

func (s *GauntletState) Champion() (string, bool) {
	return s.FinalChampionID, s.Completed && s.FinalChampionID != ""
}

func (s *GauntletState) Clone() *GauntletState {
	c := *s
	c.Entrants = make([]models.Entrant, len(s.Entrants))
	copy(c.Entrants, s.Entrants)
	c.Challengers = make([]string, len(s.Challengers))
	copy(c.Challengers, s.Challengers)
	c.Matches = make([]*models.Match, len(s.Matches))
	for i, m := range s.Matches {
		c.Matches[i] = m.Clone()
	}
	c.History = make([]GauntletHistoryEntry, len(s.History))
	copy(c.History, s.History)
	return &c
}

// GauntletStats — производная статистика, считается при чтении и нигде
// не хранится.
type GauntletStats struct {
	CompletedMatches   int     `json:"completed_matches"`
	RemainingMatches   int     `json:"remaining_matches"`
	TitleDefenses      int     `json:"title_defenses"`
	TitleChanges       int     `json:"title_changes"`
	CurrentStreak      int     `json:"current_streak"`
	BestStreak         int     `json:"best_streak"`
	BestStreakHolderID string  `json:"best_streak_holder_id,omitempty"`
	Progress           float64 `json:"progress"`
}

// GauntletEngine — последовательная защита титула: претендент, победивший
// чемпиона, сам становится чемпионом; терминальное состояние — после
// последнего претендента.
type GauntletEngine struct{}

func NewGauntletEngine() *GauntletEngine {
	return &GauntletEngine{}
}

func (e *GauntletEngine) Name() string { return "Gauntlet" }

func (e *GauntletEngine) Initialize(entrants []models.Entrant, opts Options) (State, error) {
	if len(entrants) < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", ErrInvalidEntrantCount, len(entrants))
	}
	gopts := opts.Gauntlet

	seeded := sortedBySeed(entrants)
	championID := gopts.ChampionID
	if championID == "" {
		championID = seeded[0].ID
	} else if _, ok := models.EntrantByID(seeded, championID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrChampionNotFound, championID)
	}

	challengers := make([]string, 0, len(seeded)-1)
	for _, en := range seeded {
		if en.ID != championID {
			challengers = append(challengers, en.ID)
		}
	}

	switch gopts.Order {
	case OrderSeeded, "":
		// порядок сида уже установлен
	case OrderReverseSeeded:
		for i, j := 0, len(challengers)-1; i < j; i, j = i+1, j-1 {
			challengers[i], challengers[j] = challengers[j], challengers[i]
		}
	case OrderRandom:
		seed := gopts.RandSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		for i := len(challengers) - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			challengers[i], challengers[j] = challengers[j], challengers[i]
		}
	case OrderManual:
		manual, err := validateManualOrder(challengers, gopts.ChallengerIDs)
		if err != nil {
			return nil, err
		}
		challengers = manual
	default:
		return nil, fmt.Errorf("%w: unknown order %q", ErrInvalidChallengerOrder, gopts.Order)
	}

	matches := make([]*models.Match, len(challengers))
	for i, challengerID := range challengers {
		m := &models.Match{
			Section: models.SectionGauntlet,
			Round:   1,
			Number:  i + 1,
			SlotB:   challengerID,
			Status:  models.MatchStatusWaiting,
		}
		if i == 0 {
			m.SlotA = championID
			m.Status = models.MatchStatusPending
		}
		matches[i] = m
	}

	st := &GauntletState{
		Kind:        models.FormatGauntlet,
		Entrants:    seeded,
		ChampionID:  championID,
		Challengers: challengers,
		Matches:     matches,
	}
	return st, nil
}

// validateManualOrder проверяет, что ручной порядок — перестановка
// претендентов, и возвращает его как есть.
func validateManualOrder(challengers, manual []string) ([]string, error) {
	if len(manual) != len(challengers) {
		return nil, fmt.Errorf("%w: expected %d challengers, got %d", ErrInvalidChallengerOrder, len(challengers), len(manual))
	}
	expected := make(map[string]bool, len(challengers))
	for _, id := range challengers {
		expected[id] = true
	}
	for _, id := range manual {
		if !expected[id] {
			return nil, fmt.Errorf("%w: unexpected or duplicate id %q", ErrInvalidChallengerOrder, id)
		}
		delete(expected, id)
	}
	out := make([]string, len(manual))
	copy(out, manual)
	return out, nil
}

// RecordResult закрывает текущую защиту. Победа претендента сменяет
// чемпиона; следующий матч открывается со свежим чемпионом в слоте A.
// Каждый вызов дописывает ровно одну запись истории.
func (e *GauntletEngine) RecordResult(st State, ref models.MatchRef, res models.MatchResult) (State, error) {
	gs, ok := st.(*GauntletState)
	if !ok || gs.Kind != models.FormatGauntlet {
		return nil, fmt.Errorf("%w: %s", ErrStateFormat, e.Name())
	}
	if ref.Section != models.SectionGauntlet {
		return nil, fmt.Errorf("%w: %s round %d match %d", ErrMatchNotFound, ref.Section, ref.Round, ref.Number)
	}
	if ref.Number < 1 || ref.Number > len(gs.Matches) {
		return nil, fmt.Errorf("%w: %d of [1, %d]", ErrInvalidMatchNumber, ref.Number, len(gs.Matches))
	}

	cl := gs.Clone()
	m := cl.Matches[ref.Number-1]
	// Для текущей защиты слот A — всегда действующий чемпион, слот B —
	// претендент, так что проверка победителя сводится к проверке слотов.
	if err := applyResult(m, res); err != nil {
		return nil, err
	}

	previousChampionID := cl.ChampionID
	changed := m.WinnerID == m.SlotB && m.SlotB != previousChampionID
	if changed {
		cl.ChampionID = m.SlotB
	}
	cl.History = append(cl.History, GauntletHistoryEntry{
		MatchNumber:        m.Number,
		PreviousChampionID: previousChampionID,
		ChallengerID:       m.SlotB,
		WinnerID:           m.WinnerID,
		ChampionChanged:    changed,
	})

	if m.Number < len(cl.Matches) {
		next := cl.Matches[m.Number]
		next.SlotA = cl.ChampionID
		next.Status = models.MatchStatusPending
	} else {
		cl.FinalChampionID = cl.ChampionID
		cl.Completed = true
	}
	return cl, nil
}

// Stats считает статистику защиты титула из истории.
func (e *GauntletEngine) Stats(st State) (*GauntletStats, error) {
	gs, ok := st.(*GauntletState)
	if !ok || gs.Kind != models.FormatGauntlet {
		return nil, fmt.Errorf("%w: %s", ErrStateFormat, e.Name())
	}

	stats := &GauntletStats{
		CompletedMatches: len(gs.History),
		RemainingMatches: len(gs.Matches) - len(gs.History),
	}
	if len(gs.Matches) > 0 {
		stats.Progress = float64(len(gs.History)) / float64(len(gs.Matches)) * 100
	}

	streak := 0
	holder := ""
	for _, entry := range gs.History {
		if entry.ChampionChanged {
			stats.TitleChanges++
		} else {
			stats.TitleDefenses++
		}
		if entry.WinnerID == holder {
			streak++
		} else {
			holder = entry.WinnerID
			streak = 1
		}
		if streak > stats.BestStreak {
			stats.BestStreak = streak
			stats.BestStreakHolderID = holder
		}
	}

	// Текущая серия — хвост истории без смены чемпиона.
	for i := len(gs.History) - 1; i >= 0; i-- {
		if gs.History[i].ChampionChanged {
			break
		}
		stats.CurrentStreak++
	}
	return stats, nil
}

// Standings определены только для терминального состояния: первым идёт
// финальный чемпион, дальше — в обратном порядке выбывания (кто продержался
// дольше, тот выше). До завершения турнира возвращается nil.
func (e *GauntletEngine) Standings(st State) ([]models.Standing, error) {
	gs, ok := st.(*GauntletState)
	if !ok || gs.Kind != models.FormatGauntlet {
		return nil, fmt.Errorf("%w: %s", ErrStateFormat, e.Name())
	}
	if !gs.Completed {
		return nil, nil
	}

	wins := make(map[string]int, len(gs.Entrants))
	losses := make(map[string]int, len(gs.Entrants))
	for _, m := range gs.Matches {
		if m.Status != models.MatchStatusCompleted {
			continue
		}
		wins[m.WinnerID]++
		losses[m.LoserID]++
	}

	ordered := []string{gs.FinalChampionID}
	seen := map[string]bool{gs.FinalChampionID: true}
	for i := len(gs.History) - 1; i >= 0; i-- {
		entry := gs.History[i]
		eliminated := entry.ChallengerID
		if entry.ChampionChanged {
			eliminated = entry.PreviousChampionID
		}
		if !seen[eliminated] {
			seen[eliminated] = true
			ordered = append(ordered, eliminated)
		}
	}

	standings := make([]models.Standing, 0, len(gs.Entrants))
	for i, id := range ordered {
		entrant, _ := models.EntrantByID(gs.Entrants, id)
		standings = append(standings, models.Standing{
			Rank:        i + 1,
			EntrantID:   id,
			DisplayName: entrant.DisplayName,
			Wins:        wins[id],
			Losses:      losses[id],
		})
	}
	// Участники, так и не сыгравшие ни одного матча: место не определено,
	// помечаем явно вместо того, чтобы угадывать.
	for _, en := range gs.Entrants {
		if !seen[en.ID] {
			standings = append(standings, models.Standing{
				EntrantID:   en.ID,
				DisplayName: en.DisplayName,
				Unranked:    true,
			})
		}
	}
	return standings, nil
}
