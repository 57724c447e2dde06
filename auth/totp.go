// Package auth derives a rolling TOTP code from a shared pairing secret
// and uses that code as an HMAC key to sign and verify short peer-id tags,
// the way 3622f28d_ivoras-discover's discover-auth.go signs a challenge
// with a shared passphrase, generalised to a time-rolling key.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/lanpair/core/wire"
)

// Period and digit count for the rolling authentication code.
const (
	Period = 15 * time.Second
	Digits = otp.DigitsEight
	Issuer = "lanpair"
)

// ErrInvalidSecret is returned when the raw secret is empty.
var ErrInvalidSecret = errors.New("auth: invalid pairing secret")

// Authenticator derives the current TOTP code from a shared pairing
// secret and uses it as an HMAC-SHA-256 key over a peer id.
type Authenticator struct {
	secret []byte
	now    func() time.Time // overridable for tests
}

// NewFromSecret builds an Authenticator from raw secret bytes.
func NewFromSecret(secret []byte) (*Authenticator, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidSecret
	}
	cp := make([]byte, len(secret))
	copy(cp, secret)
	return &Authenticator{secret: cp, now: time.Now}, nil
}

// NewFromURL builds an Authenticator from an otpauth:// URL, as produced
// by Authenticator.URL or a paired device's QR payload.
func NewFromURL(rawURL string) (*Authenticator, error) {
	key, err := otp.NewKeyFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	secret, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(key.Secret())
	if err != nil {
		return nil, err
	}
	return NewFromSecret(secret)
}

// Secret returns the raw pairing secret.
func (a *Authenticator) Secret() []byte {
	cp := make([]byte, len(a.secret))
	copy(cp, a.secret)
	return cp
}

// Base32 renders the secret as an unpadded base32 string, suitable for a
// QR payload or manual entry.
func (a *Authenticator) Base32() string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(a.secret)
}

// URL renders an otpauth:// URL for this secret, scoped to accountName
// (typically the owning PeerId).
func (a *Authenticator) URL(accountName string) string {
	key, err := otp.NewKeyFromURL("otpauth://totp/" + Issuer + ":" + accountName +
		"?secret=" + a.Base32() + "&issuer=" + Issuer + "&algorithm=SHA256&digits=8&period=15")
	if err != nil {
		// construction above is always well-formed; fall back defensively
		return ""
	}
	return key.String()
}

// Code returns the current 8-digit TOTP code.
func (a *Authenticator) Code() (string, error) {
	return totp.GenerateCodeCustom(a.Base32(), a.now(), totp.ValidateOpts{
		Period:    uint(Period.Seconds()),
		Digits:    Digits,
		Algorithm: otp.AlgorithmSHA256,
	})
}

// Sign computes HMAC-SHA-256(key=currentCode, message=peerId) and returns
// the 32-byte tag.
func (a *Authenticator) Sign(id wire.PeerId) ([wire.HmacTagSize]byte, error) {
	var tag [wire.HmacTagSize]byte
	code, err := a.Code()
	if err != nil {
		return tag, err
	}
	mac := hmac.New(sha256.New, []byte(code))
	mac.Write([]byte(id))
	copy(tag[:], mac.Sum(nil))
	return tag, nil
}

// Verify checks tag against HMAC-SHA-256(key=currentCode, message=id) in
// constant time.
func (a *Authenticator) Verify(id wire.PeerId, tag [wire.HmacTagSize]byte) (bool, error) {
	want, err := a.Sign(id)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(want[:], tag[:]) == 1, nil
}
