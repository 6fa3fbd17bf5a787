package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed       = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrInvalidFormat          = errors.New("unknown tournament format")
	ErrEntrantsRequired       = errors.New("entrant list is required")
	ErrInvalidSeeding         = errors.New("entrant seeds must be unique and positive")

	// Ошибки жизненного цикла турнира
	ErrTournamentNotStarted    = errors.New("tournament has not been started")
	ErrTournamentNotActive     = errors.New("tournament is not active")
	ErrTournamentAlreadyActive = errors.New("tournament is already active")
	ErrTournamentAlreadyOver   = errors.New("tournament is already completed or canceled")
	ErrRoundsNotSupported      = errors.New("round generation is only supported for swiss tournaments")
	ErrStatsNotSupported       = errors.New("stats are only supported for gauntlet tournaments")
	ErrInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrConcurrentStateConflict = errors.New("tournament state was modified concurrently")
	ErrLogoInvalidContentType  = errors.New("logo must be a png or jpeg image")
	ErrLogoTooLarge            = errors.New("logo file is too large")
	ErrTournamentNameConflict  = errors.New("tournament name already exists for this organizer")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrAuthInvalidEmail       = errors.New("email address is not valid")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
)
