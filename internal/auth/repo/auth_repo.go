package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// AuthRepo provides data access for the user_main, user_auth and
// user_session tables. It binds to sqlx.ExtContext so the same queries run
// against *sqlx.DB or an open *sqlx.Tx; the service decides the transaction
// boundary.
type AuthRepo struct {
	db sqlx.ExtContext
}

func New(db sqlx.ExtContext) *AuthRepo { return &AuthRepo{db: db} }

// UsernameTaken reports whether a credential row already uses username.
func (r *AuthRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var one int
	err := sqlx.GetContext(ctx, r.db, &one,
		`SELECT 1 FROM user_auth WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateUser inserts a user_main row and returns the new id.
func (r *AuthRepo) CreateUser(ctx context.Context, status int) (int32, error) {
	var id int32
	err := sqlx.GetContext(ctx, r.db, &id,
		`INSERT INTO user_main (status) VALUES ($1) RETURNING user_main_id`, status)
	return id, err
}

// InsertCredential creates the credential row for a new user.
func (r *AuthRepo) InsertCredential(ctx context.Context, userID int32, username, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_auth (user_main_id, username, hash) VALUES ($1, $2, $3)`,
		userID, username, hash)
	return err
}

// UpdatePasswordHash replaces the stored hash for a user.
func (r *AuthRepo) UpdatePasswordHash(ctx context.Context, userID int32, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_auth SET hash = $2 WHERE user_main_id = $1`, userID, hash)
	return err
}

// GetCredential returns the stored hash and owner id for a username.
// Returns sql.ErrNoRows when the username is unknown.
func (r *AuthRepo) GetCredential(ctx context.Context, username string) (int32, string, error) {
	var row struct {
		UserID int32  `db:"user_main_id"`
		Hash   string `db:"hash"`
	}
	err := sqlx.GetContext(ctx, r.db, &row,
		`SELECT user_main_id, hash FROM user_auth WHERE username = $1`, username)
	if err != nil {
		return 0, "", err
	}
	return row.UserID, row.Hash, nil
}

// InsertSession stores a freshly issued session.
func (r *AuthRepo) InsertSession(ctx context.Context, userID int32, token, publicKey string, expires time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_session (user_main_id, token, public_key, expires) VALUES ($1, $2, $3, $4)`,
		userID, token, publicKey, expires)
	return err
}

// GetValidSession resolves a token to its owner and stored public key.
// A session is valid iff it has not expired and still carries a public key.
// Returns sql.ErrNoRows otherwise.
func (r *AuthRepo) GetValidSession(ctx context.Context, token string) (int32, string, error) {
	var row struct {
		UserID    int32  `db:"user_main_id"`
		PublicKey string `db:"public_key"`
	}
	err := sqlx.GetContext(ctx, r.db, &row,
		`SELECT public_key, user_main_id FROM user_session WHERE token = $1 AND expires > now() AND public_key <> ''`,
		token)
	if err != nil {
		return 0, "", err
	}
	return row.UserID, row.PublicKey, nil
}

// RotateSession atomically reads and clears the session's public key while
// capping its expiry at now. It never extends an already-expired session.
// Returns sql.ErrNoRows if the key is already gone, which is how exactly one
// of two concurrent refreshes on the same token loses.
func (r *AuthRepo) RotateSession(ctx context.Context, token string) (int32, string, error) {
	const q = `
WITH old AS (
    SELECT token, user_main_id, public_key
    FROM user_session
    WHERE token = $1 AND public_key <> ''
    FOR UPDATE
)
UPDATE user_session s
SET public_key = '', expires = least(s.expires, now())
FROM old
WHERE s.token = old.token
RETURNING old.user_main_id, old.public_key`
	var row struct {
		UserID    int32  `db:"user_main_id"`
		PublicKey string `db:"public_key"`
	}
	if err := sqlx.GetContext(ctx, r.db, &row, q, token); err != nil {
		return 0, "", err
	}
	return row.UserID, row.PublicKey, nil
}

// ExpireSession invalidates a session in place. Idempotent: expiring an
// already-expired session is a no-op.
func (r *AuthRepo) ExpireSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_session SET expires = now(), public_key = '' WHERE token = $1`, token)
	return err
}

// ExpireOtherSessions invalidates every valid session of the user except the
// one presented on the current request.
func (r *AuthRepo) ExpireOtherSessions(ctx context.Context, userID int32, keepToken string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_session SET expires = least(expires, now()), public_key = '' WHERE user_main_id = $1 AND token <> $2 AND public_key <> ''`,
		userID, keepToken)
	return err
}

// UpdateProfile sets the user's display name and email.
func (r *AuthRepo) UpdateProfile(ctx context.Context, userID int32, name, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_main SET name = $2, email = $3 WHERE user_main_id = $1`,
		userID, name, email)
	return err
}
