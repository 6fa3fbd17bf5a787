package brackets

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

// State — состояние одного турнира, интерпретируемое движком его формата.
// Движки чистые: каждая операция получает состояние и возвращает новое,
// не трогая исходное. Ни хранения, ни фоновых процессов у движков нет.
type State interface {
	FormatKind() models.FormatKind
	// Terminal — дальнейшие матчи невозможны, чемпион определён.
	Terminal() bool
	// Champion возвращает id чемпиона, когда состояние терминально.
	Champion() (string, bool)
}

// Options — параметры инициализации. Actor передаётся как capability:
// проверка токена и поиск роли — забота внешнего слоя, движок лишь
// валидирует роль там, где контракт этого требует (швейцарская система).
type Options struct {
	Actor    models.Actor    `json:"actor"`
	Gauntlet GauntletOptions `json:"gauntlet,omitempty"`
}

// Engine — общий контракт четырёх форматов: построить структуру,
// принять результат, посчитать таблицу. Все операции синхронные,
// ошибки возвращаются немедленно, частичных мутаций не бывает.
type Engine interface {
	Name() string
	Initialize(entrants []models.Entrant, opts Options) (State, error)
	RecordResult(st State, ref models.MatchRef, res models.MatchResult) (State, error)
	// Standings возвращает nil без ошибки, пока таблица не определена
	// (гаунтлет до терминального состояния).
	Standings(st State) ([]models.Standing, error)
}

// ForFormat — тонкий диспетчер: выбирает движок по формату турнира.
func ForFormat(kind models.FormatKind) (Engine, error) {
	switch kind {
	case models.FormatSingleElimination:
		return NewSingleEliminationEngine(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationEngine(), nil
	case models.FormatSwiss:
		return NewSwissEngine(), nil
	case models.FormatGauntlet:
		return NewGauntletEngine(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, kind)
	}
}

// UnmarshalState восстанавливает состояние из сериализованного вида.
// Формат сериализации — ровно JSON структур состояний, ничего другого
// движки на диск не определяют.
func UnmarshalState(kind models.FormatKind, data []byte) (State, error) {
	var st State
	switch kind {
	case models.FormatSingleElimination, models.FormatDoubleElimination:
		st = &BracketState{}
	case models.FormatSwiss:
		st = &SwissState{}
	case models.FormatGauntlet:
		st = &GauntletState{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, kind)
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to decode %s state: %w", kind, err)
	}
	return st, nil
}

// MarshalState сериализует состояние для сохранения внешним слоем.
func MarshalState(st State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s state: %w", st.FormatKind(), err)
	}
	return data, nil
}

// sortedBySeed возвращает копию списка участников, упорядоченную по сиду.
// Исходный порядок вызывающего не меняется.
func sortedBySeed(entrants []models.Entrant) []models.Entrant {
	sorted := make([]models.Entrant, len(entrants))
	copy(sorted, entrants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seed < sorted[j].Seed
	})
	return sorted
}

// applyResult фиксирует исход матча по явному победителю.
// Используется элиминационными форматами и гаунтлетом; швейцарская
// система пишет исход сама, потому что допускает ничьи.
func applyResult(m *models.Match, res models.MatchResult) error {
	switch m.Status {
	case models.MatchStatusCompleted:
		return fmt.Errorf("%w: %s round %d match %d", ErrMatchAlreadyCompleted, m.Section, m.Round, m.Number)
	case models.MatchStatusWaiting:
		return fmt.Errorf("%w: %s round %d match %d", ErrMatchNotPlayable, m.Section, m.Round, m.Number)
	}
	if !m.HasSlot(res.WinnerID) {
		return fmt.Errorf("%w: %q", ErrInvalidWinner, res.WinnerID)
	}
	m.WinnerID = res.WinnerID
	m.LoserID = m.Opponent(res.WinnerID)
	if res.ScoreA != nil && res.ScoreB != nil {
		a, b := *res.ScoreA, *res.ScoreB
		m.ScoreA, m.ScoreB = &a, &b
	}
	m.Status = models.MatchStatusCompleted
	return nil
}

// fillSlot помещает участника в слот и открывает матч, когда оба слота
// заполнены. Переход waiting→pending происходит ровно один раз.
func fillSlot(m *models.Match, intoSlotA bool, entrantID string) {
	if intoSlotA {
		m.SlotA = entrantID
	} else {
		m.SlotB = entrantID
	}
	if m.Status == models.MatchStatusWaiting && m.SlotA != "" && m.SlotB != "" {
		m.Status = models.MatchStatusPending
	}
}
