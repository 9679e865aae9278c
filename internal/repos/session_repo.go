package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type SessionRepo struct{ db *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

type SessionRow struct {
	ID          string         `db:"id"`
	TokenBox    []byte         `db:"token_box"`
	ProfileJSON sql.NullString `db:"profile_json"`
	ExpiresAt   sql.NullString `db:"expires_at"`
	UpdatedAt   sql.NullString `db:"updated_at"`
}

// Expiry parses ExpiresAt; zero when unset.
func (r SessionRow) Expiry() time.Time {
	if !r.ExpiresAt.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, r.ExpiresAt.String)
	return t
}

func (r *SessionRepo) Save(ctx context.Context, id string, tokenBox []byte, profileJSON string, expiresAt time.Time) error {
	var exp sql.NullString
	if !expiresAt.IsZero() {
		exp = sql.NullString{String: expiresAt.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions(id, token_box, profile_json, expires_at, updated_at)
		VALUES(?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
		  token_box = excluded.token_box,
		  profile_json = excluded.profile_json,
		  expires_at = excluded.expires_at,
		  updated_at = excluded.updated_at
	`, id, tokenBox, profileJSON, exp, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*SessionRow, error) {
	var row SessionRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, token_box, profile_json, expires_at, updated_at
		FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *SessionRepo) All(ctx context.Context) ([]SessionRow, error) {
	rows := []SessionRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, token_box, profile_json, expires_at, updated_at
		FROM sessions ORDER BY updated_at`)
	return rows, err
}

// PurgeExpired removes rows whose expiry is before now and returns how many.
func (r *SessionRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at < ?`,
		now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
