package app

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	acc := Account{ID: 7, Username: "omerfaruk", Role: RoleWaiter}

	token, err := issuer.Issue(acc)
	if err != nil {
		t.Fatal(err)
	}
	uid, username, err := issuer.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if uid != 7 || username != "omerfaruk" {
		t.Fatalf("got uid=%d username=%q", uid, username)
	}
}

func TestTokenRejectsForgeryAndExpiry(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	other := NewTokenIssuer([]byte("other-secret"), time.Hour)
	acc := Account{ID: 7, Username: "omerfaruk"}

	forged, _ := other.Issue(acc)
	if _, _, err := issuer.Verify(forged); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("err = %v, want ErrStaleSession", err)
	}

	if _, _, err := issuer.Verify("not-a-token"); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("err = %v, want ErrStaleSession", err)
	}

	// The constructor clamps non-positive ttl, so build an expired issuer
	// by hand.
	short := &TokenIssuer{secret: []byte("test-secret"), ttl: -time.Minute}
	token, err := short.Issue(acc)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := issuer.Verify(token); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expired token: err = %v, want ErrStaleSession", err)
	}
}
