// Package accounts manages registration, profiles, settings and the
// administrative role-change and ban flows.
package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/text/language"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/httpx"
	"github.com/mediport/mediport/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	Create(ctx context.Context, a Account) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
	List(ctx context.Context, skip, limit int) ([]Account, error)
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*Account, error)
	UpdateProfilePicture(ctx context.Context, id int64, path string) error
	UpdateSettings(ctx context.Context, id int64, s Settings) error
	UpdateRole(ctx context.Context, id int64, role auth.Role) error
	Ban(ctx context.Context, id int64) error
}

// Service handles account business logic.
type Service struct {
	repo   RepositoryPort
	hasher *auth.Hasher
	guard  *auth.Guard
	audit  shared.Recorder
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, hasher *auth.Hasher, guard *auth.Guard, audit shared.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, guard: guard, audit: audit, logger: logger}
}

// Register creates a new account with the default user role.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, Account{
		CIN:          input.CIN,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Gender:       input.Gender,
		Phone:        input.Phone,
		PasswordHash: digest,
		Role:         auth.RoleUser,
	})
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns accounts for administrators.
func (s *Service) List(ctx context.Context, principal *Account, skip, limit int) ([]Account, error) {
	if err := s.guard.Authorize(ctx, principal, auth.ActionListUsers, nil); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if skip < 0 {
		skip = 0
	}
	return s.repo.List(ctx, skip, limit)
}

// UpdateProfile applies a profile edit to the caller's own account.
func (s *Service) UpdateProfile(ctx context.Context, principal *Account, upd ProfileUpdate) (*Account, error) {
	return s.repo.UpdateProfile(ctx, principal.ID, upd)
}

// SetProfilePicture stores the path of the caller's uploaded picture.
func (s *Service) SetProfilePicture(ctx context.Context, principal *Account, path string) error {
	return s.repo.UpdateProfilePicture(ctx, principal.ID, path)
}

// UpdateSettings validates and stores UI preferences. The language must be a
// well-formed BCP 47 tag.
func (s *Service) UpdateSettings(ctx context.Context, principal *Account, settings Settings) (Settings, error) {
	tag, err := language.Parse(settings.Language)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: unsupported language %q", httpx.ErrValidation, settings.Language)
	}
	settings.Language = tag.String()
	if settings.Theme == "" {
		settings.Theme = principal.Theme
	}
	if err := s.repo.UpdateSettings(ctx, principal.ID, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// ChangeRole assigns a new role to the target account. Admin only; admins
// cannot change their own role.
func (s *Service) ChangeRole(ctx context.Context, principal *Account, targetID int64, roleStr string) (*Account, error) {
	role, err := auth.ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf("%w: role must be one of user, doctor, admin", httpx.ErrValidation)
	}
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(ctx, principal, auth.ActionChangeRole, target); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  principal.ID,
		Action:   shared.AuditChangeRole,
		Entity:   "user_account",
		EntityID: strconv.FormatInt(targetID, 10),
		Meta:     map[string]any{"from": string(target.Role), "to": string(role)},
	})
	target.Role = role
	return target, nil
}

// Ban removes the target account and everything that references it. The
// cascade runs in a single transaction; a failure anywhere surfaces as
// ErrOperationFailed with nothing deleted.
func (s *Service) Ban(ctx context.Context, principal *Account, targetID int64) error {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.guard.Authorize(ctx, principal, auth.ActionBanUser, target); err != nil {
		return err
	}
	if err := s.repo.Ban(ctx, targetID); err != nil {
		s.logger.Error("ban cascade failed", slog.Int64("target", targetID), slog.Any("error", err))
		return fmt.Errorf("%w: ban cascade rolled back", auth.ErrOperationFailed)
	}
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  principal.ID,
		Action:   shared.AuditBanUser,
		Entity:   "user_account",
		EntityID: strconv.FormatInt(targetID, 10),
		Meta:     map[string]any{"email": target.Email},
	})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}
