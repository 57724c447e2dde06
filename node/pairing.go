package node

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/lanpair/core/auth"
	"github.com/lanpair/core/wire"
)

// pairingSecretLen is 20 bytes (160 bits), the RFC 4226 recommended
// minimum for a TOTP secret.
const pairingSecretLen = 20

// QrPayload is the data shared out of band (typically via a QR code the
// UI renders) to pair two devices: one side's own metadata plus the
// pairing secret both sides will use to construct a TOTP authenticator
// for each other. Rendering it as an actual QR code is a UI concern;
// this package only produces and consumes the JSON payload.
type QrPayload struct {
	Secret string            `json:"secret"` // base32, unpadded
	Peer   wire.PeerMetadata `json:"peer"`
}

func generateSecret() ([]byte, error) {
	buf := make([]byte, pairingSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("node: generate pairing secret: %w", err)
	}
	return buf, nil
}

// GetSharableQrCode returns the payload a UI embeds in a pairing QR
// code. If secret is nil, a fresh pairing secret is generated and
// persisted under this device's own identity, mirroring the first
// stage of pairing (device A). If secret is provided, it is used as
// given instead of generating a new one, the second stage of pairing
// (device B reciprocating with the secret it received from A) so both
// sides converge on the same shared secret. Either way the secret is
// persisted under a key derived from this device's own identity; Pair
// does not read that entry.
func (n *Node) GetSharableQrCode(secret []byte) (QrPayload, error) {
	if secret == nil {
		generated, err := generateSecret()
		if err != nil {
			return QrPayload{}, err
		}
		secret = generated
	}
	if err := n.secrets.Set(pairingSecretKey(n.id), secret); err != nil {
		return QrPayload{}, fmt.Errorf("node: persist pairing secret: %w", err)
	}

	authenticator, err := auth.NewFromSecret(secret)
	if err != nil {
		return QrPayload{}, ErrPairing
	}

	return QrPayload{
		Secret: authenticator.Base32(),
		Peer:   n.manager.GetMetadata(),
	}, nil
}

func pairingSecretKey(id wire.PeerId) string { return string(id) + "_SelfPairingSecret" }

// DecodeQrPayload parses a scanned QR code's JSON content.
func DecodeQrPayload(data []byte) (QrPayload, error) {
	var payload QrPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return QrPayload{}, fmt.Errorf("node: parse pairing payload: %w", err)
	}
	return payload, nil
}
