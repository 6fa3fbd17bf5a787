package brackets

import (
	"fmt"
	"math"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

// SwissRecord — счёт одного участника. Opponents растёт монотонно и
// используется правилом "без повторных встреч"; Buchholz никогда не
// правится руками — только пересчитывается из сыгранных результатов.
type SwissRecord struct {
	EntrantID string   `json:"entrant_id"`
	Wins      int      `json:"wins"`
	Losses    int      `json:"losses"`
	Draws     int      `json:"draws"`
	Buchholz  int      `json:"buchholz"`
	Opponents []string `json:"opponents,omitempty"`
}

func (r *SwissRecord) hasFaced(entrantID string) bool {
	for _, id := range r.Opponents {
		if id == entrantID {
			return true
		}
	}
	return false
}

func (r *SwissRecord) addOpponent(entrantID string) {
	if !r.hasFaced(entrantID) {
		r.Opponents = append(r.Opponents, entrantID)
	}
}

type SwissRound struct {
	Number  int             `json:"number"`
	Matches []*models.Match `json:"matches"`
}

// SwissState — записи счёта плюс упорядоченный список раундов.
type SwissState struct {
	Kind        models.FormatKind       `json:"format"`
	Entrants    []models.Entrant        `json:"entrants"`
	Records     map[string]*SwissRecord `json:"records"`
	Rounds      []*SwissRound           `json:"rounds"`
	TotalRounds int                     `json:"total_rounds"`
	Completed   bool                    `json:"completed"`
}

func (s *SwissState) FormatKind() models.FormatKind { return s.Kind }

func (s *SwissState) Terminal() bool { return s.Completed }

// Champion — лидер финальной таблицы (wins, затем Buchholz).
func (s *SwissState) Champion() (string, bool) {
	if !s.Completed {
		return "", false
	}
	ranked := s.rankedRecords()
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].EntrantID, true
}

func (s *SwissState) Clone() *SwissState {
	c := *s
	c.Entrants = make([]models.Entrant, len(s.Entrants))
	copy(c.Entrants, s.Entrants)
	c.Records = make(map[string]*SwissRecord, len(s.Records))
	for id, r := range s.Records {
		rc := *r
		rc.Opponents = make([]string, len(r.Opponents))
		copy(rc.Opponents, r.Opponents)
		c.Records[id] = &rc
	}
	c.Rounds = make([]*SwissRound, len(s.Rounds))
	for i, round := range s.Rounds {
		rc := &SwissRound{Number: round.Number, Matches: make([]*models.Match, len(round.Matches))}
		for j, m := range round.Matches {
			rc.Matches[j] = m.Clone()
		}
		c.Rounds[i] = rc
	}
	return &c
}

// rankedRecords — записи в порядке таблицы: wins по убыванию, Buchholz по
// убыванию, при полном равенстве порядок стабилен (исходный сид).
func (s *SwissState) rankedRecords() []*SwissRecord {
	ranked := make([]*SwissRecord, 0, len(s.Entrants))
	for _, e := range sortedBySeed(s.Entrants) {
		if r, ok := s.Records[e.ID]; ok {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Wins != ranked[j].Wins {
			return ranked[i].Wins > ranked[j].Wins
		}
		return ranked[i].Buchholz > ranked[j].Buchholz
	})
	return ranked
}

// SwissEngine — раунды формируются по ходу турнира: пары подбираются по
// текущему счёту, повторные встречи допускаются только когда легальной
// пары не существует. Число раундов — ceil(log2(n)).
type SwissEngine struct{}

func NewSwissEngine() *SwissEngine {
	return &SwissEngine{}
}

func (e *SwissEngine) Name() string { return "Swiss" }

// Initialize создаёт нулевые записи счёта. Операция доступна только
// организатору: роль приходит готовой capability, сама аутентификация —
// забота внешнего слоя. Раунды создаёт GenerateNextRound.
func (e *SwissEngine) Initialize(entrants []models.Entrant, opts Options) (State, error) {
	if !opts.Actor.IsOrganizer() {
		return nil, ErrOrganizerOnly
	}
	n := len(entrants)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", ErrInvalidEntrantCount, n)
	}
	if n%2 != 0 {
		return nil, fmt.Errorf("%w: even count required, got %d", ErrInvalidEntrantCount, n)
	}

	seeded := sortedBySeed(entrants)
	records := make(map[string]*SwissRecord, n)
	for _, en := range seeded {
		records[en.ID] = &SwissRecord{EntrantID: en.ID}
	}

	st := &SwissState{
		Kind:        models.FormatSwiss,
		Entrants:    seeded,
		Records:     records,
		TotalRounds: int(math.Ceil(math.Log2(float64(n)))),
	}
	return st, nil
}

// GenerateNextRound закрывает турнир, когда раунды исчерпаны, иначе
// формирует пары нового раунда. Пока в последнем раунде есть несыгранные
// матчи, новый раунд не открывается.
func (e *SwissEngine) GenerateNextRound(st State) (State, error) {
	ss, ok := st.(*SwissState)
	if !ok || ss.Kind != models.FormatSwiss {
		return nil, fmt.Errorf("%w: %s", ErrStateFormat, e.Name())
	}

	if len(ss.Rounds) > 0 {
		last := ss.Rounds[len(ss.Rounds)-1]
		for _, m := range last.Matches {
			if m.Status != models.MatchStatusCompleted {
				return nil, fmt.Errorf("%w: round %d match %d", ErrRoundIncomplete, last.Number, m.Number)
			}
		}
	}

	cl := ss.Clone()
	if len(cl.Rounds) >= cl.TotalRounds {
		cl.Completed = true
		return cl, nil
	}

	pairs, err := e.pairRound(cl)
	if err != nil {
		return nil, err
	}

	round := &SwissRound{Number: len(cl.Rounds) + 1}
	for i, p := range pairs {
		round.Matches = append(round.Matches, &models.Match{
			Section: models.SectionSwiss,
			Round:   round.Number,
			Number:  i + 1,
			SlotA:   p[0],
			SlotB:   p[1],
			Status:  models.MatchStatusPending,
		})
	}
	cl.Rounds = append(cl.Rounds, round)
	return cl, nil
}

// pairRound: первый раунд сводит верхнюю половину сида с нижней
// (seed1 vs seed n/2+1 и так далее). Дальше участники сортируются по
// (wins, Buchholz, seed) и спариваются жадно сверху вниз — это группирует
// равные счёта в когорты; сыгранные пары пропускаются, и только если у
// участника не осталось новых соперников, допускается повторная встреча.
func (e *SwissEngine) pairRound(ss *SwissState) ([][2]string, error) {
	entrants := sortedBySeed(ss.Entrants)

	if len(ss.Rounds) == 0 {
		half := len(entrants) / 2
		pairs := make([][2]string, 0, half)
		for i := 0; i < half; i++ {
			pairs = append(pairs, [2]string{entrants[i].ID, entrants[half+i].ID})
		}
		return pairs, nil
	}

	sort.SliceStable(entrants, func(i, j int) bool {
		ri, rj := ss.Records[entrants[i].ID], ss.Records[entrants[j].ID]
		if ri.Wins != rj.Wins {
			return ri.Wins > rj.Wins
		}
		return ri.Buchholz > rj.Buchholz
	})

	paired := make([]bool, len(entrants))
	var pairs [][2]string
	for i := range entrants {
		if paired[i] {
			continue
		}
		opponent := -1
		for j := i + 1; j < len(entrants); j++ {
			if paired[j] {
				continue
			}
			if !ss.Records[entrants[i].ID].hasFaced(entrants[j].ID) {
				opponent = j
				break
			}
			if opponent < 0 {
				opponent = j // запасной вариант: повторная встреча
			}
		}
		if opponent < 0 {
			continue
		}
		paired[i], paired[opponent] = true, true
		pairs = append(pairs, [2]string{entrants[i].ID, entrants[opponent].ID})
	}

	if len(pairs) == 0 {
		return nil, ErrNoValidPairing
	}
	return pairs, nil
}

// RecordResult обновляет обе записи по счёту (равный счёт — ничья),
// дописывает соперников в истории и пересчитывает Buchholz всех
// участников с нуля.
func (e *SwissEngine) RecordResult(st State, ref models.MatchRef, res models.MatchResult) (State, error) {
	ss, ok := st.(*SwissState)
	if !ok || ss.Kind != models.FormatSwiss {
		return nil, fmt.Errorf("%w: %s", ErrStateFormat, e.Name())
	}

	cl := ss.Clone()
	m := cl.findMatch(ref)
	if m == nil {
		return nil, fmt.Errorf("%w: swiss round %d match %d", ErrMatchNotFound, ref.Round, ref.Number)
	}
	if m.Status == models.MatchStatusCompleted {
		return nil, fmt.Errorf("%w: swiss round %d match %d", ErrMatchAlreadyCompleted, m.Round, m.Number)
	}

	recA, okA := cl.Records[m.SlotA]
	recB, okB := cl.Records[m.SlotB]
	if !okA || !okB {
		return nil, fmt.Errorf("%w: match %d of round %d", ErrRecordsNotFound, m.Number, m.Round)
	}

	scoreA, scoreB, err := resolveScores(m, res)
	if err != nil {
		return nil, err
	}

	switch {
	case scoreA > scoreB:
		recA.Wins++
		recB.Losses++
		m.WinnerID, m.LoserID = m.SlotA, m.SlotB
	case scoreB > scoreA:
		recB.Wins++
		recA.Losses++
		m.WinnerID, m.LoserID = m.SlotB, m.SlotA
	default:
		recA.Draws++
		recB.Draws++
	}
	recA.addOpponent(m.SlotB)
	recB.addOpponent(m.SlotA)

	m.ScoreA, m.ScoreB = &scoreA, &scoreB
	m.Status = models.MatchStatusCompleted

	Recalculate(cl)
	return cl, nil
}

// resolveScores приводит результат к паре очков. Явный счёт имеет
// приоритет; один лишь победитель трактуется как 1:0.
func resolveScores(m *models.Match, res models.MatchResult) (int, int, error) {
	if res.ScoreA != nil && res.ScoreB != nil {
		if res.WinnerID != "" && !m.HasSlot(res.WinnerID) {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWinner, res.WinnerID)
		}
		return *res.ScoreA, *res.ScoreB, nil
	}
	if !m.HasSlot(res.WinnerID) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWinner, res.WinnerID)
	}
	if res.WinnerID == m.SlotA {
		return 1, 0, nil
	}
	return 0, 1, nil
}

func (s *SwissState) findMatch(ref models.MatchRef) *models.Match {
	if ref.Section != models.SectionSwiss {
		return nil
	}
	for _, round := range s.Rounds {
		if round.Number != ref.Round {
			continue
		}
		for _, m := range round.Matches {
			if m.Number == ref.Number {
				return m
			}
		}
	}
	return nil
}

// Recalculate пересчитывает Buchholz каждого участника как сумму побед
// всех его соперников. Пересчёт всегда с нуля, инкрементальных правок
// нет — это отдельный шаг, который вызывающий может выполнять и сам
// (например, отложенно при пакетном вводе результатов).
func Recalculate(ss *SwissState) {
	for _, rec := range ss.Records {
		buchholz := 0
		for _, oppID := range rec.Opponents {
			if opp, ok := ss.Records[oppID]; ok {
				buchholz += opp.Wins
			}
		}
		rec.Buchholz = buchholz
	}
}

// Standings — wins по убыванию, Buchholz как тай-брейк; полное равенство
// сохраняет исходный порядок (стабильная сортировка).
func (e *SwissEngine) Standings(st State) ([]models.Standing, error) {
	ss, ok := st.(*SwissState)
	if !ok || ss.Kind != models.FormatSwiss {
		return nil, fmt.Errorf("%w: %s", ErrStateFormat, e.Name())
	}
	standings := make([]models.Standing, 0, len(ss.Entrants))
	for i, rec := range ss.rankedRecords() {
		entrant, _ := models.EntrantByID(ss.Entrants, rec.EntrantID)
		standings = append(standings, models.Standing{
			Rank:        i + 1,
			EntrantID:   rec.EntrantID,
			DisplayName: entrant.DisplayName,
			Wins:        rec.Wins,
			Losses:      rec.Losses,
			Draws:       rec.Draws,
			Buchholz:    rec.Buchholz,
		})
	}
	return standings, nil
}
