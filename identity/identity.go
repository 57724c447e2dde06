// Package identity manages the long-lived device certificate, its
// derived PeerId, and per-peer TOTP pairing secrets via an injected
// secret store, the role wgcfg/device's static-key storage plays for
// WireGuard's Curve25519 keypairs.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/blake2s"

	"github.com/lanpair/core/auth"
	"github.com/lanpair/core/p2p"
	"github.com/lanpair/core/wire"
)

// Secret store keys for the persisted identity material.
const (
	KeyIdentity    = "Identity"
	KeyCertificate = "Certificate"
	KeyPrivateKey  = "PrivateKey"
)

func totpKey(id wire.PeerId) string { return string(id) + "_Totp" }

// SecretStore is the small injected interface identity relies on for
// durable, platform-specific storage: the device certificate/key pair
// and per-peer TOTP secrets.
type SecretStore interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
}

// Identity is the device's long-lived self-signed certificate and
// matching private key. Id is derived deterministically from the
// certificate's DER bytes and is stable for the life of the device.
type Identity struct {
	Id         wire.PeerId
	CertDER    []byte
	PrivateKey ed25519.PrivateKey
}

// deriveId computes a PeerId from certificate DER bytes: a blake2s-256
// hash truncated to 20 bytes and hex-encoded, yielding 40 lowercase
// hex characters, which satisfies wire.NewPeerId's alphanumeric rule.
func deriveId(certDER []byte) (wire.PeerId, error) {
	sum := blake2s.Sum256(certDER)
	return wire.NewPeerId(hex.EncodeToString(sum[:20]))
}

func generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("identity: generate serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "lanpair-device"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Now().AddDate(100, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	if err != nil {
		return nil, fmt.Errorf("identity: create certificate: %w", err)
	}

	id, err := deriveId(der)
	if err != nil {
		return nil, fmt.Errorf("identity: derive id: %w", err)
	}
	return &Identity{Id: id, CertDER: der, PrivateKey: priv}, nil
}

// encode packs an Identity's certificate and key as PEM blocks for
// storage; the secret store is assumed opaque-bytes, not structured.
func encode(ident *Identity) (cert, key []byte) {
	cert = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ident.CertDER})
	keyBytes, _ := x509.MarshalPKCS8PrivateKey(ident.PrivateKey)
	key = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})
	return cert, key
}

func decode(certPEM, keyPEM []byte) (*Identity, error) {
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, errors.New("identity: malformed certificate PEM")
	}
	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, errors.New("identity: malformed key PEM")
	}
	key, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("identity: parse private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("identity: unexpected private key type")
	}
	id, err := deriveId(certBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("identity: derive id: %w", err)
	}
	return &Identity{Id: id, CertDER: certBlock.Bytes, PrivateKey: priv}, nil
}

// GetOrCreateIdentity atomically reads the stored identity, or
// generates and persists a new one if absent. Store implementations
// are responsible for serialising concurrent callers; callers invoke
// this from a single node's startup path rather than from multiple
// goroutines at once.
func GetOrCreateIdentity(store SecretStore) (*Identity, error) {
	certPEM, ok, err := store.Get(KeyCertificate)
	if err != nil {
		return nil, fmt.Errorf("identity: read certificate: %w", err)
	}
	if ok {
		keyPEM, ok2, err := store.Get(KeyPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("identity: read private key: %w", err)
		}
		if ok2 {
			return decode(certPEM, keyPEM)
		}
	}

	ident, err := generate()
	if err != nil {
		return nil, err
	}
	certPEM, keyPEM := encode(ident)
	if err := store.Set(KeyCertificate, certPEM); err != nil {
		return nil, fmt.Errorf("identity: persist certificate: %w", err)
	}
	if err := store.Set(KeyPrivateKey, keyPEM); err != nil {
		return nil, fmt.Errorf("identity: persist private key: %w", err)
	}
	return ident, nil
}

// GetTotp returns the pairing secret stored for peerId, if any.
func GetTotp(store SecretStore, peerId wire.PeerId) ([]byte, bool, error) {
	return store.Get(totpKey(peerId))
}

// SetTotp stores secret as the pairing secret for peerId.
func SetTotp(store SecretStore, peerId wire.PeerId, secret []byte) error {
	return store.Set(totpKey(peerId), secret)
}

// ToKnown builds a PeerCandidate for each metadata entry that has a
// TOTP secret on file and can construct a valid authenticator from it;
// entries with no secret, or an invalid one, are silently skipped.
func ToKnown(store SecretStore, metas []wire.PeerMetadata) ([]*p2p.Candidate, error) {
	candidates := make([]*p2p.Candidate, 0, len(metas))
	for _, meta := range metas {
		secret, ok, err := GetTotp(store, meta.Id)
		if err != nil {
			return nil, fmt.Errorf("identity: read totp for %s: %w", meta.Id, err)
		}
		if !ok {
			continue
		}
		authenticator, err := auth.NewFromSecret(secret)
		if err != nil {
			continue
		}
		candidates = append(candidates, &p2p.Candidate{
			Id:       meta.Id,
			Metadata: meta,
			Auth:     authenticator,
		})
	}
	return candidates, nil
}
