package util

import "testing"

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := GenerateJWT("jane.doe", "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	username, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if username != "jane.doe" {
		t.Errorf("username = %q", username)
	}

	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Error("token accepted with wrong secret")
	}
	if _, err := ParseJWT("not-a-token", "secret"); err == nil {
		t.Error("garbage accepted as token")
	}
}

func TestPasswordHash(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword("secret", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
