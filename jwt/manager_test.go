package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestIssueParseHS256(t *testing.T) {
	m, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("kitchen-secret-kitchen-secret"), Issuer: "recipeauth"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	tok, err := m.Issue("u-1", "ana@x.co", "Ana")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "ana@x.co" || claims.Name != "Ana" || claims.Subject != "u-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := IDClaims{UserID: "u", RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)), IssuedAt: gjwt.NewNumericDate(time.Now())}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong algorithm err=%v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("s3cret-s3cret-s3cret"), Now: func() time.Time { return clock }})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok, err := m.Issue("u", "u@x.co", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock = now.Add(2 * time.Minute)
	if _, err := m.Parse(tok); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestEd25519VerifyOnlyManager(t *testing.T) {
	pub, priv := newEdKeys(t)
	otherPub, _ := newEdKeys(t)

	signer, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	tok, err := signer.Issue("u", "u@x.co", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := signer.Parse(tok); err != nil {
		t.Fatalf("signer should verify its own token: %v", err)
	}

	verifier, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	if _, err := verifier.Parse(tok); err != nil {
		t.Fatalf("expected token to verify: %v", err)
	}
	if _, err := verifier.Issue("u", "u@x.co", ""); !errors.Is(err, ErrNoSigningKey) {
		t.Fatalf("verify-only Issue err=%v, want ErrNoSigningKey", err)
	}

	other, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: otherPub})
	if err != nil {
		t.Fatalf("new other: %v", err)
	}
	if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign key err=%v, want ErrInvalidToken", err)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero ttl", cfg: Config{SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{name: "huge leeway", cfg: Config{TTL: time.Minute, Leeway: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{name: "hs256 no key", cfg: Config{TTL: time.Minute, SigningMethod: MethodHS256}},
		{name: "ed25519 no key", cfg: Config{TTL: time.Minute, SigningMethod: MethodEd25519}},
		{name: "unknown method", cfg: Config{TTL: time.Minute, SigningMethod: "rs256"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewManager(tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseUnverified(t *testing.T) {
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("somebody-elses-key")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok, err := m.Issue("uid-7", "seven@x.co", "Seven")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ParseUnverified(tok)
	if err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if claims.UserID != "uid-7" || claims.Email != "seven@x.co" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := ParseUnverified("not.a.token"); err == nil {
		t.Fatal("expected malformed token to fail")
	}
}
