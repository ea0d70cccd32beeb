package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/db"
	"github.com/mediport/mediport/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, cin, first_name, last_name, email, COALESCE(gender, ''), COALESCE(phone, ''),
	password_hash, role, COALESCE(profile_picture, ''), COALESCE(language, 'en'), COALESCE(theme, 'light'), created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var role string
	if err := row.Scan(&a.ID, &a.CIN, &a.FirstName, &a.LastName, &a.Email, &a.Gender, &a.Phone,
		&a.PasswordHash, &role, &a.ProfilePicture, &a.Language, &a.Theme, &a.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return nil, err
	}
	a.Role = parsed
	return &a, nil
}

// Create inserts a new account. Duplicate email or cin map to ErrDuplicate.
func (r *Repository) Create(ctx context.Context, a Account) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_account (cin, first_name, last_name, email, gender, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		a.CIN, a.FirstName, a.LastName, a.Email, a.Gender, a.Phone, a.PasswordHash, string(a.Role))
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		switch {
		case db.IsUniqueViolation(err, "user_account_email_key"):
			return nil, fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
		case db.IsUniqueViolation(err, "user_account_cin_key"):
			return nil, fmt.Errorf("%w: cin already registered", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return &a, nil
}

// FindByEmail fetches an account by email. Implements auth.AccountSource.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM user_account WHERE email = $1`, email)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// FindByID fetches an account by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM user_account WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// List returns accounts ordered by id with offset pagination.
func (r *Repository) List(ctx context.Context, skip, limit int) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM user_account ORDER BY id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// UpdateProfile applies the non-nil fields of upd.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE user_account SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			gender     = COALESCE($4, gender),
			phone      = COALESCE($5, phone)
		WHERE id = $1
		RETURNING `+accountColumns,
		id, upd.FirstName, upd.LastName, upd.Gender, upd.Phone)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// UpdateProfilePicture stores the picture path for the account.
func (r *Repository) UpdateProfilePicture(ctx context.Context, id int64, path string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_account SET profile_picture = $2 WHERE id = $1`, id, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// UpdateSettings stores the account's language and theme preferences.
func (r *Repository) UpdateSettings(ctx context.Context, id int64, s Settings) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_account SET language = $2, theme = $3 WHERE id = $1`, id, s.Language, s.Theme)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// UpdateRole changes the account's role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role auth.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_account SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// banCascade lists the statements that remove an account together with every
// row referencing it. Order matters: like counters are settled before their
// join rows go, appointments lose their doctor reference before the account
// row is deleted.
var banCascade = []string{
	`DELETE FROM notifications WHERE user_id = $1 OR actor_id = $1`,
	`UPDATE comments SET likes = GREATEST(likes - 1, 0) WHERE id IN (SELECT comment_id FROM comment_likes WHERE user_id = $1)`,
	`DELETE FROM comment_likes WHERE user_id = $1 OR comment_id IN (SELECT id FROM comments WHERE user_id = $1)`,
	`DELETE FROM replies WHERE user_id = $1 OR comment_id IN (SELECT id FROM comments WHERE user_id = $1)`,
	`DELETE FROM comments WHERE user_id = $1`,
	`DELETE FROM documents WHERE user_id = $1 OR uploader_id = $1`,
	`UPDATE appointments SET status = 'cancelled' WHERE doctor_id = $1 AND status = 'confirmed'`,
	`UPDATE appointments SET doctor_id = NULL WHERE doctor_id = $1`,
	`DELETE FROM appointments WHERE user_id = $1`,
	`DELETE FROM user_account WHERE id = $1`,
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func runBanCascade(ctx context.Context, tx execer, id int64) error {
	for _, stmt := range banCascade {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return fmt.Errorf("accounts: ban cascade: %w", err)
		}
	}
	return nil
}

// Ban removes the account and every row that references it inside one
// transaction. A failure anywhere rolls the whole cascade back.
func (r *Repository) Ban(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return runBanCascade(ctx, tx, id)
	})
}
