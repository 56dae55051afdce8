package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hnstar/hnstar/internal/auth/entity"
	"github.com/hnstar/hnstar/internal/auth/repo"
	"github.com/hnstar/hnstar/internal/weberr"
)

const (
	sessionTTL      = 30 * 24 * time.Hour
	freshnessWindow = 10 * time.Minute
	tokenBytes      = 64

	minPasswordLen = 10
	maxPasswordLen = 100
	minUsernameLen = 3
	maxUsernameLen = 30
	maxProfileLen  = 200
)

// Service orchestrates registration, sign-in, per-request authentication,
// session refresh, sign-out and credential/profile changes.
type Service struct {
	db     *sqlx.DB
	hasher *Hasher
	now    func() time.Time
}

func NewService(db *sqlx.DB, hasher *Hasher) *Service {
	return &Service{db: db, hasher: hasher, now: time.Now}
}

// withTx runs fn against a repository bound to one transaction. The
// transaction always reaches commit or rollback, even on early error.
func (s *Service) withTx(ctx context.Context, fn func(r *repo.AuthRepo) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return weberr.Store(err)
	}
	if err := fn(repo.New(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return weberr.Store(err)
	}
	return nil
}

func validatePassword(password string) error {
	switch n := utf8.RuneCountInString(password); {
	case n > maxPasswordLen:
		return weberr.Validation("given password is too long")
	case n < minPasswordLen:
		return weberr.Validation("given password is too short")
	}
	return nil
}

func validateCredentials(username, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	switch n := utf8.RuneCountInString(username); {
	case n < minUsernameLen:
		return weberr.Validation("given username is too short")
	case n > maxUsernameLen:
		return weberr.Validation("given username is too long")
	}
	return nil
}

func credentialBoundsOK(username, password string) bool {
	return validateCredentials(username, password) == nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Register validates the credentials, hashes the password with the server
// secret, and creates the user and credential rows in one transaction.
// Returns the new user id.
func (s *Service) Register(ctx context.Context, username, password string) (int32, error) {
	if err := validateCredentials(username, password); err != nil {
		return 0, err
	}

	taken, err := repo.New(s.db).UsernameTaken(ctx, username)
	if err != nil {
		return 0, weberr.Store(err)
	}
	if taken {
		return 0, weberr.Conflict("given username is taken")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, weberr.Store(err)
	}

	var id int32
	err = s.withTx(ctx, func(r *repo.AuthRepo) error {
		var txErr error
		id, txErr = r.CreateUser(ctx, entity.StatusActive)
		if txErr != nil {
			return weberr.Store(txErr)
		}
		if txErr = r.InsertCredential(ctx, id, username, hash); txErr != nil {
			// the pre-check races with concurrent registrations; the unique
			// constraint is authoritative
			if isUniqueViolation(txErr) {
				return weberr.Conflict("given username is taken")
			}
			return weberr.Store(txErr)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SignIn verifies the request signature and password, then issues a session
// token bound to the client's public key. All credential failures collapse
// to the same generic unauthorized error.
func (s *Service) SignIn(ctx context.Context, req entity.SignInRequest) (*entity.TokenExpiry, error) {
	if !credentialBoundsOK(req.Username, req.Password) {
		return nil, weberr.Unauthorized("invalid credentials")
	}

	if !VerifySignature(req.PublicKey, req.Signature, req.Timestamp+req.Username) {
		return nil, weberr.Unauthorized("invalid credentials")
	}

	userID, hash, err := repo.New(s.db).GetCredential(ctx, req.Username)
	if errors.Is(err, sql.ErrNoRows) {
		// unknown username yields the same response as a wrong password
		return nil, weberr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, weberr.Store(err)
	}

	if !s.hasher.Verify(hash, req.Password) {
		return nil, weberr.Unauthorized("invalid credentials")
	}

	storedKey, err := json.Marshal(req.PublicKey)
	if err != nil {
		return nil, weberr.Store(err)
	}
	token, err := generateToken()
	if err != nil {
		return nil, weberr.Store(err)
	}
	expires := s.now().Add(sessionTTL)

	err = s.withTx(ctx, func(r *repo.AuthRepo) error {
		if txErr := r.InsertSession(ctx, userID, token, string(storedKey), expires); txErr != nil {
			return weberr.Store(txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity.TokenExpiry{Token: token, Expires: expires.UTC().Format(time.RFC3339)}, nil
}

// Authenticate resolves the caller of a protected request from its
// `Authorization: Signature` header.
func (s *Service) Authenticate(ctx context.Context, r *http.Request) (*entity.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, weberr.Unauthorized("authorization header missing")
	}
	const prefix = "Signature "
	if !strings.HasPrefix(header, prefix) {
		return nil, weberr.Unauthorized("invalid authorization header")
	}

	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return nil, weberr.Encoding(err)
	}
	var model entity.SignatureAuthorization
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, weberr.Encoding(err)
	}

	// replay protection; unparseable timestamps count as stale
	if !s.freshTimestamp(model.Timestamp) {
		return nil, weberr.Unauthorized("authorization timestamp out of range")
	}

	userID, storedKey, err := repo.New(s.db).GetValidSession(ctx, model.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, weberr.Unauthorized("token not found")
	}
	if err != nil {
		return nil, weberr.Store(err)
	}

	var jwk entity.JWK
	if err := json.Unmarshal([]byte(storedKey), &jwk); err != nil {
		return nil, weberr.Store(err)
	}
	if !VerifySignature(jwk, model.Signature, model.Timestamp+model.Token) {
		return nil, weberr.Invalid("invalid signature")
	}
	return &entity.Identity{UserID: userID, Token: model.Token}, nil
}

func (s *Service) freshTimestamp(ts string) bool {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return false
	}
	d := s.now().Sub(t)
	if d < 0 {
		d = -d
	}
	return d <= freshnessWindow
}

// Refresh rotates an authenticated session: the old session gives up its
// public key and is capped at the current time, and a new session carries
// the key forward with a fresh expiry. Exactly one of two concurrent
// refreshes on the same token can win; the loser observes the key already
// gone and fails.
func (s *Service) Refresh(ctx context.Context, r *http.Request) (*entity.TokenExpiry, error) {
	id, err := s.Authenticate(ctx, r)
	if err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, weberr.Store(err)
	}
	expires := s.now().Add(sessionTTL)

	err = s.withTx(ctx, func(rp *repo.AuthRepo) error {
		userID, publicKey, txErr := rp.RotateSession(ctx, id.Token)
		if errors.Is(txErr, sql.ErrNoRows) {
			return weberr.Store(errors.New("session rotated concurrently"))
		}
		if txErr != nil {
			return weberr.Store(txErr)
		}
		if txErr = rp.InsertSession(ctx, userID, token, publicKey, expires); txErr != nil {
			return weberr.Store(txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity.TokenExpiry{Token: token, Expires: expires.UTC().Format(time.RFC3339)}, nil
}

// SignOut invalidates the presented session. Signing out an already-expired
// session succeeds silently.
func (s *Service) SignOut(ctx context.Context, r *http.Request) error {
	id, err := s.Authenticate(ctx, r)
	if err != nil {
		return err
	}
	if err := repo.New(s.db).ExpireSession(ctx, id.Token); err != nil {
		return weberr.Store(err)
	}
	return nil
}

// ChangePassword replaces the caller's credential hash and invalidates
// every other session of the user; the presented session stays valid.
func (s *Service) ChangePassword(ctx context.Context, r *http.Request, newPassword string) error {
	id, err := s.Authenticate(ctx, r)
	if err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return weberr.Store(err)
	}
	return s.withTx(ctx, func(rp *repo.AuthRepo) error {
		if txErr := rp.UpdatePasswordHash(ctx, id.UserID, hash); txErr != nil {
			return weberr.Store(txErr)
		}
		if txErr := rp.ExpireOtherSessions(ctx, id.UserID, id.Token); txErr != nil {
			return weberr.Store(txErr)
		}
		return nil
	})
}

// ChangeProfile updates the caller's display name and email.
func (s *Service) ChangeProfile(ctx context.Context, r *http.Request, name, email string) error {
	id, err := s.Authenticate(ctx, r)
	if err != nil {
		return err
	}
	if name == "" || utf8.RuneCountInString(name) > maxProfileLen {
		return weberr.Validation("given name is empty or too long")
	}
	if email == "" || utf8.RuneCountInString(email) > maxProfileLen {
		return weberr.Validation("given email is empty or too long")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return weberr.Validation("given email is malformed")
	}
	if err := repo.New(s.db).UpdateProfile(ctx, id.UserID, name, email); err != nil {
		return weberr.Store(err)
	}
	return nil
}
