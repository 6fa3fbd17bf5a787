package models

type MatchStatus string

const (
	// MatchStatusWaiting — хотя бы один слот не определён (зависит от более раннего матча).
	MatchStatusWaiting MatchStatus = "waiting"
	// MatchStatusPending — оба слота заполнены, матч можно играть.
	MatchStatusPending MatchStatus = "pending"
	// MatchStatusCompleted — результат зафиксирован, терминальный статус.
	MatchStatusCompleted MatchStatus = "completed"
)

type BracketSection string

const (
	SectionWinners         BracketSection = "winners"
	SectionLosers          BracketSection = "losers"
	SectionGrandFinal      BracketSection = "grand_final"
	SectionGrandFinalReset BracketSection = "grand_final_reset"
	SectionSwiss           BracketSection = "swiss"
	SectionGauntlet        BracketSection = "gauntlet"
)

// Match — один матч внутри структуры турнира. Набор матчей фиксируется
// при инициализации; потом меняются только слоты, статус и результат.
// Пустая строка в слоте означает "участник ещё не определён".
type Match struct {
	Section  BracketSection `json:"section"`
	Round    int            `json:"round"`
	Number   int            `json:"number"` // порядковый номер внутри раунда, с единицы
	SlotA    string         `json:"slot_a,omitempty"`
	SlotB    string         `json:"slot_b,omitempty"`
	Status   MatchStatus    `json:"status"`
	WinnerID string         `json:"winner_id,omitempty"`
	LoserID  string         `json:"loser_id,omitempty"`
	ScoreA   *int           `json:"score_a,omitempty"`
	ScoreB   *int           `json:"score_b,omitempty"`
}

// MatchRef адресует матч внутри состояния турнира.
type MatchRef struct {
	Section BracketSection `json:"section"`
	Round   int            `json:"round"`
	Number  int            `json:"number"`
}

// MatchResult — результат, который внешний слой передаёт движку.
// Для элиминационных форматов и гаунтлета достаточно WinnerID;
// швейцарская система работает от счёта (равный счёт — ничья).
type MatchResult struct {
	WinnerID string `json:"winner_id,omitempty"`
	ScoreA   *int   `json:"score_a,omitempty"`
	ScoreB   *int   `json:"score_b,omitempty"`
}

// Ref возвращает адрес матча.
func (m *Match) Ref() MatchRef {
	return MatchRef{Section: m.Section, Round: m.Round, Number: m.Number}
}

// HasSlot сообщает, занимает ли участник один из слотов матча.
func (m *Match) HasSlot(entrantID string) bool {
	return entrantID != "" && (m.SlotA == entrantID || m.SlotB == entrantID)
}

// Opponent возвращает второго участника матча.
func (m *Match) Opponent(entrantID string) string {
	switch entrantID {
	case m.SlotA:
		return m.SlotB
	case m.SlotB:
		return m.SlotA
	}
	return ""
}

// Clone делает глубокую копию матча.
func (m *Match) Clone() *Match {
	c := *m
	if m.ScoreA != nil {
		v := *m.ScoreA
		c.ScoreA = &v
	}
	if m.ScoreB != nil {
		v := *m.ScoreB
		c.ScoreB = &v
	}
	return &c
}
