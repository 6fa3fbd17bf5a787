package models

import "time"

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RolePlayer    UserRole = "player"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	Nickname     *string   `json:"nickname,omitempty" db:"nickname"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Actor — подтверждённая личность вызывающего, которую внешний слой передаёт
// в движок как capability. Сам поиск пользователя и проверка токена — забота
// middleware; движок лишь проверяет роль как чистое предусловие.
type Actor struct {
	UserID int      `json:"user_id"`
	Role   UserRole `json:"role"`
}

// IsOrganizer — true для организатора или администратора.
func (a Actor) IsOrganizer() bool {
	return a.Role == RoleOrganizer || a.Role == RoleAdmin
}
