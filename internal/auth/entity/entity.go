package entity

import "time"

// JWK is the client-held public-key descriptor registered with a session.
// Only RSA modulus/exponent pairs are supported; n and e are base64url
// without padding, as in RFC 7517.
type JWK struct {
	Alg string `json:"alg"`
	Kty string `json:"kty"`
	E   string `json:"e"`
	N   string `json:"n"`
}

// SignInRequest is the sign-in body. The signature covers timestamp||username.
type SignInRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Timestamp string `json:"timestamp"`
	PublicKey JWK    `json:"public_key"`
	Signature string `json:"signature"`
}

// SignatureAuthorization is the decoded payload of an
// `Authorization: Signature <base64>` header. The signature covers
// timestamp||token.
type SignatureAuthorization struct {
	Token     string `json:"token"`
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
}

// TokenExpiry is returned by sign-in and refresh.
type TokenExpiry struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
}

// Identity is the resolved caller of an authenticated request.
type Identity struct {
	UserID int32
	Token  string
}

// Session mirrors a user_session row.
type Session struct {
	Token     string    `db:"token"`
	UserID    int32     `db:"user_main_id"`
	PublicKey string    `db:"public_key"`
	Expires   time.Time `db:"expires"`
}

// User status values stored in user_main.status.
const (
	StatusPending = 0
	StatusActive  = 1
)
