package node

import (
	"encoding/json"
	"testing"

	"github.com/lanpair/core/auth"
	"github.com/lanpair/core/wire"
)

func TestGetSharableQrCodeGeneratesSecretWhenNil(t *testing.T) {
	h := newTestNode(t)
	if err := h.node.SetConf("host", false); err != nil {
		t.Fatal(err)
	}

	payload, err := h.node.GetSharableQrCode(nil)
	if err != nil {
		t.Fatalf("GetSharableQrCode: %v", err)
	}
	if payload.Secret == "" {
		t.Error("expected a generated secret")
	}
	if payload.Peer.Id != h.node.id || payload.Peer.Name != "host" {
		t.Errorf("got peer %+v", payload.Peer)
	}
}

func TestGetSharableQrCodeReusesProvidedSecret(t *testing.T) {
	h := newTestNode(t)
	given, err := generateSecret()
	if err != nil {
		t.Fatal(err)
	}

	payload, err := h.node.GetSharableQrCode(given)
	if err != nil {
		t.Fatalf("GetSharableQrCode: %v", err)
	}

	authenticator, err := auth.NewFromSecret(given)
	if err != nil {
		t.Fatal(err)
	}
	if payload.Secret != authenticator.Base32() {
		t.Errorf("got secret %q, want the base32 form of the provided secret", payload.Secret)
	}
}

func TestGetSharableQrCodePersistsSecretUnderOwnIdentity(t *testing.T) {
	h := newTestNode(t)
	if _, err := h.node.GetSharableQrCode(nil); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := h.node.secrets.Get(pairingSecretKey(h.node.id)); err != nil || !ok {
		t.Fatalf("expected a persisted pairing secret, ok=%v err=%v", ok, err)
	}
}

func TestGetSharableQrCodeIssuesFreshSecretWhenNoneProvided(t *testing.T) {
	h := newTestNode(t)
	if _, err := h.node.GetSharableQrCode(nil); err != nil {
		t.Fatal(err)
	}
	first, _, err := h.node.secrets.Get(pairingSecretKey(h.node.id))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.node.GetSharableQrCode(nil); err != nil {
		t.Fatal(err)
	}
	second, _, err := h.node.secrets.Get(pairingSecretKey(h.node.id))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) == string(second) {
		t.Error("expected a freshly generated secret when none is provided")
	}
}

// TestGetSharableQrCodeMutualPairingConverges checks that two devices
// pairing with each other converge on the same secret: A generates one,
// B reciprocates with the SAME secret A gave it, so both sides'
// QrPayload carries an identical pairing secret and their stored TOTP
// secrets for each other will agree.
func TestGetSharableQrCodeMutualPairingConverges(t *testing.T) {
	a := newTestNode(t)
	b := newTestNode(t)

	fromA, err := a.node.GetSharableQrCode(nil)
	if err != nil {
		t.Fatal(err)
	}

	given, err := decodeBase32Secret(fromA.Secret)
	if err != nil {
		t.Fatal(err)
	}
	fromB, err := b.node.GetSharableQrCode(given)
	if err != nil {
		t.Fatal(err)
	}

	if fromA.Secret != fromB.Secret {
		t.Errorf("A's secret %q and B's reciprocated secret %q diverged", fromA.Secret, fromB.Secret)
	}
}

func TestDecodeQrPayloadRoundTrip(t *testing.T) {
	meta := wire.PeerMetadata{Id: testNodeIdFill(t, "1"), Name: "host"}
	original := QrPayload{Peer: meta, Secret: "JBSWY3DPEHPK3PXP"}
	marshalled, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeQrPayload(marshalled)
	if err != nil {
		t.Fatalf("DecodeQrPayload: %v", err)
	}
	if got.Secret != original.Secret || got.Peer.Id != original.Peer.Id || got.Peer.Name != original.Peer.Name {
		t.Errorf("got %+v, want %+v", got, original)
	}
}

func TestDecodeQrPayloadRejectsMalformed(t *testing.T) {
	if _, err := DecodeQrPayload([]byte("not json")); err == nil {
		t.Error("expected an error for malformed payload")
	}
}
