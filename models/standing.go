package models

// Standing — одна строка таблицы результатов. Участники с одинаковым
// достижением (например, выбывшие в одном раунде) делят один Rank.
// Unranked выставляется для участников, для которых место не определено
// (гаунтлет, завершившийся до того, как участник сыграл).
type Standing struct {
	Rank        int    `json:"rank"`
	EntrantID   string `json:"entrant_id"`
	DisplayName string `json:"display_name"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws,omitempty"`
	Buchholz    int    `json:"buchholz,omitempty"`
	Unranked    bool   `json:"unranked,omitempty"`
}
