package accounts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/httpx"
	"github.com/mediport/mediport/internal/shared"
)

type mockAccountRepo struct {
	byID   map[int64]*Account
	nextID int64
	banErr error
	banned []int64
}

func newMockAccountRepo(seed ...*Account) *mockAccountRepo {
	repo := &mockAccountRepo{byID: make(map[int64]*Account), nextID: 1}
	for _, a := range seed {
		if a.ID >= repo.nextID {
			repo.nextID = a.ID + 1
		}
		repo.byID[a.ID] = a
	}
	return repo
}

func (m *mockAccountRepo) Create(_ context.Context, a Account) (*Account, error) {
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return nil, httpx.ErrDuplicate
		}
	}
	a.ID = m.nextID
	m.nextID++
	m.byID[a.ID] = &a
	return &a, nil
}

func (m *mockAccountRepo) FindByEmail(_ context.Context, email string) (*Account, error) {
	for _, a := range m.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *mockAccountRepo) FindByID(_ context.Context, id int64) (*Account, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockAccountRepo) List(_ context.Context, skip, limit int) ([]Account, error) {
	out := make([]Account, 0, len(m.byID))
	for _, a := range m.byID {
		out = append(out, *a)
	}
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockAccountRepo) UpdateProfile(_ context.Context, id int64, upd ProfileUpdate) (*Account, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	if upd.FirstName != nil {
		a.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		a.LastName = *upd.LastName
	}
	if upd.Gender != nil {
		a.Gender = *upd.Gender
	}
	if upd.Phone != nil {
		a.Phone = *upd.Phone
	}
	copied := *a
	return &copied, nil
}

func (m *mockAccountRepo) UpdateProfilePicture(_ context.Context, id int64, path string) error {
	a, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	a.ProfilePicture = path
	return nil
}

func (m *mockAccountRepo) UpdateSettings(_ context.Context, id int64, s Settings) error {
	a, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	a.Language = s.Language
	a.Theme = s.Theme
	return nil
}

func (m *mockAccountRepo) UpdateRole(_ context.Context, id int64, role auth.Role) error {
	a, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	a.Role = role
	return nil
}

func (m *mockAccountRepo) Ban(_ context.Context, id int64) error {
	if m.banErr != nil {
		return m.banErr
	}
	if _, ok := m.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.byID, id)
	m.banned = append(m.banned, id)
	return nil
}

type recordedAudit struct {
	logs []shared.AuditLog
}

func (r *recordedAudit) Record(_ context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func newTestService(repo *mockAccountRepo, audit shared.Recorder) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, auth.NewHasher(bcrypt.MinCost), auth.NewGuard(nil), audit, logger)
}

func admin(id int64) *Account {
	return &Account{ID: id, Email: "admin@clinic.test", Role: auth.RoleAdmin}
}

func TestRegisterHashesPasswordAndAssignsUserRole(t *testing.T) {
	repo := newMockAccountRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Register(context.Background(), RegisterInput{
		CIN:       "AB123456",
		FirstName: "Nora",
		LastName:  "Haddad",
		Email:     "nora@example.com",
		Password:  "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, auth.RoleUser, created.Role)
	assert.NotEqual(t, "correct horse", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct horse")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAccountRepo(&Account{ID: 1, Email: "nora@example.com"})
	svc := newTestService(repo, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "nora@example.com", Password: "pw"})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestListRequiresAdmin(t *testing.T) {
	repo := newMockAccountRepo(
		&Account{ID: 1, Email: "a@x.test", Role: auth.RoleUser},
		&Account{ID: 2, Email: "b@x.test", Role: auth.RoleAdmin},
	)
	svc := newTestService(repo, nil)

	_, err := svc.List(context.Background(), &Account{ID: 1, Role: auth.RoleUser}, 0, 10)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	accounts, err := svc.List(context.Background(), admin(2), 0, 10)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestUpdateSettingsCanonicalizesLanguage(t *testing.T) {
	repo := newMockAccountRepo(&Account{ID: 1, Language: "en", Theme: "dark"})
	svc := newTestService(repo, nil)
	principal, _ := repo.FindByID(context.Background(), 1)

	settings, err := svc.UpdateSettings(context.Background(), principal, Settings{Language: "FR"})
	require.NoError(t, err)
	assert.Equal(t, "fr", settings.Language)
	assert.Equal(t, "dark", settings.Theme, "empty theme keeps the current one")
}

func TestUpdateSettingsRejectsBadLanguage(t *testing.T) {
	repo := newMockAccountRepo(&Account{ID: 1, Language: "en"})
	svc := newTestService(repo, nil)
	principal, _ := repo.FindByID(context.Background(), 1)

	_, err := svc.UpdateSettings(context.Background(), principal, Settings{Language: "not a tag!!"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestChangeRole(t *testing.T) {
	t.Run("unknown role rejected", func(t *testing.T) {
		repo := newMockAccountRepo(admin(1), &Account{ID: 2, Role: auth.RoleUser})
		svc := newTestService(repo, nil)

		_, err := svc.ChangeRole(context.Background(), admin(1), 2, "superuser")
		assert.ErrorIs(t, err, httpx.ErrValidation)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		repo := newMockAccountRepo(&Account{ID: 2, Role: auth.RoleUser})
		svc := newTestService(repo, nil)

		_, err := svc.ChangeRole(context.Background(), &Account{ID: 3, Role: auth.RoleDoctor}, 2, "doctor")
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("admin cannot change own role", func(t *testing.T) {
		repo := newMockAccountRepo(admin(1))
		svc := newTestService(repo, nil)

		_, err := svc.ChangeRole(context.Background(), admin(1), 1, "user")
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("promotes and records audit", func(t *testing.T) {
		repo := newMockAccountRepo(admin(1), &Account{ID: 2, Role: auth.RoleUser})
		audit := &recordedAudit{}
		svc := newTestService(repo, audit)

		updated, err := svc.ChangeRole(context.Background(), admin(1), 2, "doctor")
		require.NoError(t, err)
		assert.Equal(t, auth.RoleDoctor, updated.Role)

		stored, _ := repo.FindByID(context.Background(), 2)
		assert.Equal(t, auth.RoleDoctor, stored.Role)

		require.Len(t, audit.logs, 1)
		assert.Equal(t, shared.AuditChangeRole, audit.logs[0].Action)
		assert.Equal(t, "user", audit.logs[0].Meta["from"])
		assert.Equal(t, "doctor", audit.logs[0].Meta["to"])
	})
}

func TestBan(t *testing.T) {
	t.Run("admin cannot ban admin", func(t *testing.T) {
		repo := newMockAccountRepo(admin(1), &Account{ID: 2, Role: auth.RoleAdmin, Email: "other@clinic.test"})
		svc := newTestService(repo, nil)

		err := svc.Ban(context.Background(), admin(1), 2)
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("admin cannot ban self", func(t *testing.T) {
		repo := newMockAccountRepo(admin(1))
		svc := newTestService(repo, nil)

		err := svc.Ban(context.Background(), admin(1), 1)
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("missing target", func(t *testing.T) {
		repo := newMockAccountRepo(admin(1))
		svc := newTestService(repo, nil)

		err := svc.Ban(context.Background(), admin(1), 99)
		assert.ErrorIs(t, err, httpx.ErrNotFound)
	})

	t.Run("cascade failure surfaces as operation failed", func(t *testing.T) {
		repo := newMockAccountRepo(admin(1), &Account{ID: 2, Role: auth.RoleUser})
		repo.banErr = errors.New("deadlock detected")
		audit := &recordedAudit{}
		svc := newTestService(repo, audit)

		err := svc.Ban(context.Background(), admin(1), 2)
		assert.ErrorIs(t, err, auth.ErrOperationFailed)
		assert.Empty(t, audit.logs, "no audit entry for a rolled back ban")
	})

	t.Run("success deletes and audits", func(t *testing.T) {
		repo := newMockAccountRepo(admin(1), &Account{ID: 2, Role: auth.RoleUser, Email: "gone@x.test"})
		audit := &recordedAudit{}
		svc := newTestService(repo, audit)

		require.NoError(t, svc.Ban(context.Background(), admin(1), 2))

		_, err := repo.FindByID(context.Background(), 2)
		assert.ErrorIs(t, err, httpx.ErrNotFound)

		require.Len(t, audit.logs, 1)
		assert.Equal(t, shared.AuditBanUser, audit.logs[0].Action)
		assert.Equal(t, "gone@x.test", audit.logs[0].Meta["email"])
	})
}
