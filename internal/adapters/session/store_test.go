package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zoramarket/cart-service/internal/adapters/session"
)

func TestStoreRemembersLatestToken(t *testing.T) {
	t.Parallel()

	now := fixedNow
	verifier := session.NewTokenVerifier("s3cret").WithClock(func() time.Time { return now })
	store := session.NewStore(verifier)
	ctx := context.Background()

	first := signToken(t, "s3cret", jwt.MapClaims{"sub": "42", "exp": fixedNow.Add(time.Hour).Unix()})
	owner, err := store.Authenticate(first)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if owner != session.UserOwner("42") || owner != "user:42" {
		t.Fatalf("unexpected owner: %s", owner)
	}

	second := signToken(t, "s3cret", jwt.MapClaims{"sub": "42", "exp": fixedNow.Add(2 * time.Hour).Unix()})
	if _, err := store.Authenticate(second); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	token, ok := store.AccessToken(ctx, owner)
	if !ok || token != second {
		t.Fatalf("latest token should be returned: ok=%v", ok)
	}

	if _, ok := store.AccessToken(ctx, "user:unknown"); ok {
		t.Fatalf("unknown owner should have no token")
	}
}

func TestStoreDropsExpiredTokens(t *testing.T) {
	t.Parallel()

	clock := fixedNow
	verifier := session.NewTokenVerifier("s3cret").WithClock(func() time.Time { return clock })
	store := session.NewStore(verifier)

	raw := signToken(t, "s3cret", jwt.MapClaims{"sub": "42", "exp": fixedNow.Add(time.Minute).Unix()})
	owner, err := store.Authenticate(raw)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	clock = fixedNow.Add(time.Hour)
	if _, ok := store.AccessToken(context.Background(), owner); ok {
		t.Fatalf("expired token should not be handed out")
	}
}

func TestStoreWithoutVerifierRejectsTokens(t *testing.T) {
	t.Parallel()

	store := session.NewStore(nil)
	raw := signToken(t, "anything", jwt.MapClaims{"sub": "42", "exp": time.Now().Add(time.Hour).Unix()})
	if _, err := store.Authenticate(raw); err == nil {
		t.Fatalf("store without a verifier must not accept tokens")
	}
	if _, ok := store.AccessToken(context.Background(), session.UserOwner("42")); ok {
		t.Fatalf("rejected token should not be recorded")
	}
}
