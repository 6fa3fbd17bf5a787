package models

// Entrant — участник турнира (игрок или команда). Список участников
// финализируется внешним слоем регистрации до старта; после Initialize
// движок считает его неизменяемым.
type Entrant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Seed        int    `json:"seed"`
}

// EntrantByID возвращает участника по его идентификатору.
func EntrantByID(entrants []Entrant, id string) (Entrant, bool) {
	for _, e := range entrants {
		if e.ID == id {
			return e, true
		}
	}
	return Entrant{}, false
}
