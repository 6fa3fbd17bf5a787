package models

import (
	"encoding/json"
	"time"
)

// FormatKind выбирает движок прогрессии для турнира.
type FormatKind string

const (
	FormatSingleElimination FormatKind = "single_elimination"
	FormatDoubleElimination FormatKind = "double_elimination"
	FormatSwiss             FormatKind = "swiss"
	FormatGauntlet          FormatKind = "gauntlet"
)

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusSoon         TournamentStatus = "soon"
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// Tournament представляет турнир. Состояние сетки хранится сериализованным
// в State и интерпретируется только движком соответствующего формата.
// Version используется для оптимистичной блокировки: все записи результатов
// одного турнира сериализуются на уровне репозитория.
type Tournament struct {
	ID          string           `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Format      FormatKind       `json:"format" db:"format"`
	OrganizerID int              `json:"organizer_id" db:"organizer_id"`
	Status      TournamentStatus `json:"status" db:"status"`
	State       json.RawMessage  `json:"state,omitempty" db:"state"`
	Version     int              `json:"version" db:"version"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	LogoKey     *string          `json:"-" db:"logo_key"`
	LogoURL     *string          `json:"logo_url,omitempty" db:"-"`
}

// ValidFormat проверяет, что строка — известный формат.
func ValidFormat(kind FormatKind) bool {
	switch kind {
	case FormatSingleElimination, FormatDoubleElimination, FormatSwiss, FormatGauntlet:
		return true
	}
	return false
}
