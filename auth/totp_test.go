package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/lanpair/core/wire"
)

func testId(t *testing.T) wire.PeerId {
	t.Helper()
	id, err := wire.NewPeerId(strings.Repeat("b", 40))
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestNewFromSecretRejectsEmpty(t *testing.T) {
	if _, err := NewFromSecret(nil); err != ErrInvalidSecret {
		t.Errorf("err = %v, want ErrInvalidSecret", err)
	}
}

func TestCodeDeterministicAtFixedTime(t *testing.T) {
	a, err := NewFromSecret([]byte("a shared pairing secret"))
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Unix(1700000000, 0)
	a.now = func() time.Time { return fixed }

	code1, err := a.Code()
	if err != nil {
		t.Fatal(err)
	}
	code2, err := a.Code()
	if err != nil {
		t.Fatal(err)
	}
	if code1 != code2 {
		t.Errorf("codes at the same instant differ: %q vs %q", code1, code2)
	}
	if len(code1) != 8 {
		t.Errorf("code length = %d, want 8", len(code1))
	}
}

func TestCodeChangesAcrossPeriods(t *testing.T) {
	a, err := NewFromSecret([]byte("a shared pairing secret"))
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Unix(1700000000, 0)
	a.now = func() time.Time { return t0 }
	code1, err := a.Code()
	if err != nil {
		t.Fatal(err)
	}
	a.now = func() time.Time { return t0.Add(Period) }
	code2, err := a.Code()
	if err != nil {
		t.Fatal(err)
	}
	if code1 == code2 {
		t.Errorf("expected code to roll over after one period, got %q both times", code1)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	id := testId(t)
	a, err := NewFromSecret([]byte("another secret"))
	if err != nil {
		t.Fatal(err)
	}
	a.now = func() time.Time { return time.Unix(1700000500, 0) }

	tag, err := a.Sign(id)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := a.Verify(id, tag)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Verify returned false for a freshly signed tag")
	}
}

func TestVerifyRejectsWrongPeer(t *testing.T) {
	a, err := NewFromSecret([]byte("another secret"))
	if err != nil {
		t.Fatal(err)
	}
	a.now = func() time.Time { return time.Unix(1700000500, 0) }

	tag, err := a.Sign(testId(t))
	if err != nil {
		t.Fatal(err)
	}
	other, err := wire.NewPeerId(strings.Repeat("c", 40))
	if err != nil {
		t.Fatal(err)
	}
	ok, err := a.Verify(other, tag)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Verify accepted a tag signed for a different peer id")
	}
}

func TestVerifyRejectsStaleTagAfterPeriodRoll(t *testing.T) {
	id := testId(t)
	a, err := NewFromSecret([]byte("rolling secret"))
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Unix(1700000000, 0)
	a.now = func() time.Time { return t0 }
	tag, err := a.Sign(id)
	if err != nil {
		t.Fatal(err)
	}

	a.now = func() time.Time { return t0.Add(10 * Period) }
	ok, err := a.Verify(id, tag)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Verify accepted a tag from ten periods earlier")
	}
}

func TestBase32RoundTripsThroughNewFromSecret(t *testing.T) {
	secret := []byte("round trip me please")
	a, err := NewFromSecret(secret)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Secret(); string(got) != string(secret) {
		t.Errorf("Secret() = %q, want %q", got, secret)
	}
	encoded := a.Base32()
	if strings.Contains(encoded, "=") {
		t.Errorf("Base32() output contains padding: %q", encoded)
	}
}

func TestURLIsParsableByNewFromURL(t *testing.T) {
	a, err := NewFromSecret([]byte("url round trip secret"))
	if err != nil {
		t.Fatal(err)
	}
	rawURL := a.URL("peer-account")
	if rawURL == "" {
		t.Fatal("URL returned empty string")
	}
	b, err := NewFromURL(rawURL)
	if err != nil {
		t.Fatalf("NewFromURL(%q): %v", rawURL, err)
	}
	if string(b.Secret()) != string(a.Secret()) {
		t.Errorf("round-tripped secret = %q, want %q", b.Secret(), a.Secret())
	}
}
