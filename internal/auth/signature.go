package auth

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha512"
	"encoding/base64"
	"math/big"

	"github.com/hnstar/hnstar/internal/auth/entity"
)

// maxExponent bounds the public exponent; anything larger than 32 bits is
// not a plausible RSA exponent and would overflow rsa.PublicKey.E.
const maxExponent = 1<<31 - 1

// VerifySignature reports whether signatureB64 is a valid RSA PKCS#1 v1.5
// SHA-512 signature over message for the given public-key descriptor.
// Any decode failure counts as verification failure.
func VerifySignature(key entity.JWK, signatureB64, message string) bool {
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}
	n, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return false
	}
	e, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return false
	}

	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() < 3 || exp.Int64() > maxExponent {
		return false
	}
	pub := rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}

	digest := sha512.Sum512([]byte(message))
	return rsa.VerifyPKCS1v15(&pub, crypto.SHA512, digest[:], sig) == nil
}
