package service

import (
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT(123456789)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tgID, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tgID != 123456789 {
		t.Fatalf("got tg_id %d, expected 123456789", tgID)
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	InitJWT("test-secret")

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ParseJWT(tok); err == nil {
			t.Fatalf("token %q must be rejected", tok)
		}
	}
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	InitJWT("secret-one")
	token, err := GenerateJWT(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	InitJWT("secret-two")
	if _, err := ParseJWT(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}
