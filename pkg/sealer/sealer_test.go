package sealer

import (
	"errors"
	"strings"
	"testing"
)

func newSealer(t *testing.T) *Sealer {
	t.Helper()
	s, err := New("")
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}
	return s
}

func TestMintAndParseRoundTrip(t *testing.T) {
	s := newSealer(t)

	token, err := s.MintToken("owner-1", "link-1")
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	ownerID, linkID, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if ownerID != "owner-1" || linkID != "link-1" {
		t.Errorf("got (%s, %s), want (owner-1, link-1)", ownerID, linkID)
	}
}

func TestTokenIsURLSafe(t *testing.T) {
	s := newSealer(t)

	token, err := s.MintToken("64f000000000000000000001", "64f000000000000000000002")
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token must be URL-safe without padding, got %q", token)
	}
}

func TestTokensAreUnpredictable(t *testing.T) {
	s := newSealer(t)

	first, _ := s.MintToken("owner-1", "link-1")
	second, _ := s.MintToken("owner-1", "link-1")
	if first == second {
		t.Error("two mints of the same payload should differ")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	s := newSealer(t)

	for _, token := range []string{"", "x", "not base64 !!!", strings.Repeat("A", 64)} {
		if _, _, err := s.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ParseToken(%q) should fail with ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestParseRejectsTampering(t *testing.T) {
	s := newSealer(t)

	token, err := s.MintToken("owner-1", "link-1")
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	tampered := []byte(token)
	if tampered[len(tampered)-1] == 'A' {
		tampered[len(tampered)-1] = 'B'
	} else {
		tampered[len(tampered)-1] = 'A'
	}

	if _, _, err := s.ParseToken(string(tampered)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token should fail with ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsForeignKey(t *testing.T) {
	s := newSealer(t)
	other, err := New("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaag=")
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}

	token, err := s.MintToken("owner-1", "link-1")
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	if _, _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token minted under another key should not parse, got %v", err)
	}
}

func TestNewRejectsBadKey(t *testing.T) {
	if _, err := New("not-base64!!!"); err == nil {
		t.Error("expected an error for a malformed key")
	}
	if _, err := New("c2hvcnQ="); err == nil {
		t.Error("expected an error for a key with a bad length")
	}
}
