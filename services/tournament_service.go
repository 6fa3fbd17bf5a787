package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/Dosada05/bracket-engine/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxLogoSizeBytes = 2 << 20 // 2MB

type CreateTournamentInput struct {
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Format      models.FormatKind `json:"format"`
}

// StartTournamentInput — финализированный список участников плюс опции
// формата. После старта список неизменяем.
type StartTournamentInput struct {
	Entrants []models.Entrant         `json:"entrants"`
	Gauntlet brackets.GauntletOptions `json:"gauntlet,omitempty"`
}

type ReportResultInput struct {
	Match  models.MatchRef    `json:"match"`
	Result models.MatchResult `json:"result"`
}

// TournamentView — турнир вместе с организатором и текущей таблицей;
// организатор и таблица собираются параллельно.
type TournamentView struct {
	Tournament *models.Tournament `json:"tournament"`
	Organizer  *models.User       `json:"organizer,omitempty"`
	Standings  []models.Standing  `json:"standings,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, actor models.Actor, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id string) (*TournamentView, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Start(ctx context.Context, id string, actor models.Actor, input StartTournamentInput) (*models.Tournament, error)
	ReportResult(ctx context.Context, id string, actor models.Actor, input ReportResultInput) (*models.Tournament, error)
	GenerateNextRound(ctx context.Context, id string, actor models.Actor) (*models.Tournament, error)
	Standings(ctx context.Context, id string) ([]models.Standing, error)
	Matches(ctx context.Context, id string) ([]*models.Match, error)
	Stats(ctx context.Context, id string) (*brackets.GauntletStats, error)
	UploadLogo(ctx context.Context, id string, actor models.Actor, contentType string, file io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	db       *sql.DB
	repo     repositories.TournamentRepository
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	hub      *brackets.Hub
	logger   *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	repo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	hub *brackets.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:       db,
		repo:     repo,
		userRepo: userRepo,
		uploader: uploader,
		hub:      hub,
		logger:   logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, actor models.Actor, input CreateTournamentInput) (*models.Tournament, error) {
	if !actor.IsOrganizer() {
		return nil, ErrForbiddenOperation
	}
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if !models.ValidFormat(input.Format) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, input.Format)
	}

	t := &models.Tournament{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Format:      input.Format,
		OrganizerID: actor.UserID,
		Status:      models.StatusRegistration,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.attachLogoURL(t)
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id string) (*TournamentView, error) {
	t, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &TournamentView{Tournament: t}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		organizer, err := s.userRepo.GetByID(gctx, t.OrganizerID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil // организатор мог быть удалён, турнир всё ещё показываем
			}
			return err
		}
		organizer.PasswordHash = ""
		view.Organizer = organizer
		return nil
	})
	g.Go(func() error {
		if len(t.State) == 0 {
			return nil // до старта таблицы нет
		}
		engine, st, err := s.loadState(t)
		if err != nil {
			return err
		}
		standings, err := engine.Standings(st)
		if err != nil {
			return err
		}
		view.Standings = standings
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tournament view: %w", err)
	}

	s.attachLogoURL(t)
	return view, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range tournaments {
		s.attachLogoURL(&tournaments[i])
	}
	return tournaments, nil
}

// Start строит полную структуру матчей и переводит турнир в active.
// Вся операция — одна транзакция: либо сетка создана и статус обновлён,
// либо не изменилось ничего.
func (s *tournamentService) Start(ctx context.Context, id string, actor models.Actor, input StartTournamentInput) (*models.Tournament, error) {
	if len(input.Entrants) == 0 {
		return nil, ErrEntrantsRequired
	}
	if err := validateEntrants(input.Entrants); err != nil {
		return nil, err
	}

	var updated *models.Tournament
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := s.lockTournament(ctx, tx, id, actor)
		if err != nil {
			return err
		}
		switch t.Status {
		case models.StatusSoon, models.StatusRegistration:
		case models.StatusActive:
			return ErrTournamentAlreadyActive
		default:
			return ErrTournamentAlreadyOver
		}

		engine, err := brackets.ForFormat(t.Format)
		if err != nil {
			return err
		}
		st, err := engine.Initialize(input.Entrants, brackets.Options{
			Actor:    actor,
			Gauntlet: input.Gauntlet,
		})
		if err != nil {
			return err
		}
		state, err := brackets.MarshalState(st)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateState(ctx, tx, t.ID, state, t.Version); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, tx, t.ID, models.StatusActive); err != nil {
			return err
		}

		t.State = state
		t.Status = models.StatusActive
		t.Version++
		updated = t
		return nil
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	s.publish(brackets.Event{
		Type:         brackets.EventTournamentStarted,
		TournamentID: updated.ID,
	})
	s.logger.Info("tournament started",
		slog.String("tournament_id", updated.ID),
		slog.String("format", string(updated.Format)),
		slog.Int("entrants", len(input.Entrants)))

	s.attachLogoURL(updated)
	return updated, nil
}

// ReportResult применяет результат матча к состоянию сетки. Строка турнира
// держится под FOR UPDATE, так что записи результатов одного турнира
// выполняются строго по одной.
func (s *tournamentService) ReportResult(ctx context.Context, id string, actor models.Actor, input ReportResultInput) (*models.Tournament, error) {
	var (
		updated  *models.Tournament
		terminal bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := s.lockTournament(ctx, tx, id, actor)
		if err != nil {
			return err
		}
		if t.Status != models.StatusActive {
			return ErrTournamentNotActive
		}

		engine, st, err := s.loadState(t)
		if err != nil {
			return err
		}
		next, err := engine.RecordResult(st, input.Match, input.Result)
		if err != nil {
			return err
		}
		state, err := brackets.MarshalState(next)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateState(ctx, tx, t.ID, state, t.Version); err != nil {
			return err
		}
		if next.Terminal() {
			if err := s.repo.UpdateStatus(ctx, tx, t.ID, models.StatusCompleted); err != nil {
				return err
			}
			t.Status = models.StatusCompleted
			terminal = true
		}

		t.State = state
		t.Version++
		updated = t
		return nil
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	s.publish(brackets.Event{
		Type:         brackets.EventMatchCompleted,
		TournamentID: updated.ID,
		Payload:      input.Match,
	})
	if terminal {
		s.publish(brackets.Event{
			Type:         brackets.EventTournamentCompleted,
			TournamentID: updated.ID,
		})
		s.logger.Info("tournament completed", slog.String("tournament_id", updated.ID))
	}

	s.attachLogoURL(updated)
	return updated, nil
}

// GenerateNextRound формирует следующий раунд швейцарки (или закрывает
// турнир, когда раунды исчерпаны).
func (s *tournamentService) GenerateNextRound(ctx context.Context, id string, actor models.Actor) (*models.Tournament, error) {
	var (
		updated  *models.Tournament
		terminal bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := s.lockTournament(ctx, tx, id, actor)
		if err != nil {
			return err
		}
		if t.Status != models.StatusActive {
			return ErrTournamentNotActive
		}
		if t.Format != models.FormatSwiss {
			return ErrRoundsNotSupported
		}

		engine, st, err := s.loadState(t)
		if err != nil {
			return err
		}
		swiss, ok := engine.(*brackets.SwissEngine)
		if !ok {
			return ErrRoundsNotSupported
		}
		next, err := swiss.GenerateNextRound(st)
		if err != nil {
			return err
		}
		state, err := brackets.MarshalState(next)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateState(ctx, tx, t.ID, state, t.Version); err != nil {
			return err
		}
		if next.Terminal() {
			if err := s.repo.UpdateStatus(ctx, tx, t.ID, models.StatusCompleted); err != nil {
				return err
			}
			t.Status = models.StatusCompleted
			terminal = true
		}

		t.State = state
		t.Version++
		updated = t
		return nil
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	if terminal {
		s.publish(brackets.Event{
			Type:         brackets.EventTournamentCompleted,
			TournamentID: updated.ID,
		})
	} else {
		s.publish(brackets.Event{
			Type:         brackets.EventRoundGenerated,
			TournamentID: updated.ID,
		})
	}

	s.attachLogoURL(updated)
	return updated, nil
}

func (s *tournamentService) Standings(ctx context.Context, id string) ([]models.Standing, error) {
	engine, st, err := s.loadStateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return engine.Standings(st)
}

func (s *tournamentService) Matches(ctx context.Context, id string) ([]*models.Match, error) {
	_, st, err := s.loadStateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return collectMatches(st), nil
}

func (s *tournamentService) Stats(ctx context.Context, id string) (*brackets.GauntletStats, error) {
	engine, st, err := s.loadStateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	gauntlet, ok := engine.(*brackets.GauntletEngine)
	if !ok {
		return nil, ErrStatsNotSupported
	}
	return gauntlet.Stats(st)
}

func (s *tournamentService) UploadLogo(ctx context.Context, id string, actor models.Actor, contentType string, file io.Reader) (*models.Tournament, error) {
	t, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OrganizerID != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}

	var ext string
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	default:
		return nil, ErrLogoInvalidContentType
	}

	data, err := io.ReadAll(io.LimitReader(file, maxLogoSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read logo file: %w", err)
	}
	if len(data) > maxLogoSizeBytes {
		return nil, ErrLogoTooLarge
	}

	key := path.Join("tournaments", t.ID, "logo"+ext)
	result, err := s.uploader.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}

	oldKey := t.LogoKey
	if err := s.repo.UpdateLogoKey(ctx, t.ID, &result.Key); err != nil {
		return nil, s.mapRepoError(err)
	}
	if oldKey != nil && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous logo",
				slog.String("tournament_id", t.ID), slog.Any("error", err))
		}
	}

	t.LogoKey = &result.Key
	s.attachLogoURL(t)
	return t, nil
}

// lockTournament читает строку под FOR UPDATE и проверяет, что вызывающий —
// организатор этого турнира (или админ).
func (s *tournamentService) lockTournament(ctx context.Context, tx *sql.Tx, id string, actor models.Actor) (*models.Tournament, error) {
	t, err := s.repo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if t.OrganizerID != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}
	return t, nil
}

func (s *tournamentService) getTournament(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return t, nil
}

// loadState восстанавливает движок и состояние сетки из строки турнира.
func (s *tournamentService) loadState(t *models.Tournament) (brackets.Engine, brackets.State, error) {
	if len(t.State) == 0 {
		return nil, nil, ErrTournamentNotStarted
	}
	engine, err := brackets.ForFormat(t.Format)
	if err != nil {
		return nil, nil, err
	}
	st, err := brackets.UnmarshalState(t.Format, t.State)
	if err != nil {
		return nil, nil, err
	}
	return engine, st, nil
}

func (s *tournamentService) loadStateByID(ctx context.Context, id string) (brackets.Engine, brackets.State, error) {
	t, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s.loadState(t)
}

func (s *tournamentService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *tournamentService) publish(event brackets.Event) {
	if s.hub != nil {
		s.hub.Publish(event)
	}
}

func (s *tournamentService) attachLogoURL(t *models.Tournament) {
	if s.uploader == nil || t.LogoKey == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.LogoKey); url != "" {
		t.LogoURL = &url
	}
}

func (s *tournamentService) mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrVersionConflict):
		return ErrConcurrentStateConflict
	default:
		return err
	}
}

func validateEntrants(entrants []models.Entrant) error {
	ids := make(map[string]bool, len(entrants))
	seeds := make(map[int]bool, len(entrants))
	for _, e := range entrants {
		if e.ID == "" {
			return fmt.Errorf("%w: entrant without id", ErrValidationFailed)
		}
		if ids[e.ID] {
			return fmt.Errorf("%w: duplicate entrant id %q", ErrValidationFailed, e.ID)
		}
		ids[e.ID] = true
		if e.Seed <= 0 || seeds[e.Seed] {
			return fmt.Errorf("%w: seed %d of entrant %q", ErrInvalidSeeding, e.Seed, e.ID)
		}
		seeds[e.Seed] = true
	}
	return nil
}

// collectMatches разворачивает матчи из состояния любого формата в один
// плоский список для чтения.
func collectMatches(st brackets.State) []*models.Match {
	switch state := st.(type) {
	case *brackets.BracketState:
		return state.Matches
	case *brackets.SwissState:
		var matches []*models.Match
		for _, round := range state.Rounds {
			matches = append(matches, round.Matches...)
		}
		return matches
	case *brackets.GauntletState:
		return state.Matches
	default:
		return nil
	}
}
