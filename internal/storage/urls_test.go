package storage

import (
	"testing"
	"time"

	"mediavault/config"
)

func TestExpiringTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := SignExpiringToken("avatars", "abc.jpg", true, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseExpiringToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Bucket != "avatars" || claims.Object != "abc.jpg" || !claims.Download {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestExpiringTokenRejectsExpired(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := SignExpiringToken("avatars", "abc.jpg", false, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseExpiringToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestExpiringTokenRejectsTampered(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := SignExpiringToken("avatars", "abc.jpg", false, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	config.AppConfig.JWTSecret = "other-secret"
	if _, err := ParseExpiringToken(token); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestMakeSecure(t *testing.T) {
	config.AppConfig.CdnPublicBaseURL = "http://cdn.test"
	config.AppConfig.CdnSecureBaseURL = "https://secure.cdn.test"

	got := MakeSecure("http://cdn.test/serve/b/f.jpg")
	if got != "https://secure.cdn.test/serve/b/f.jpg" {
		t.Fatalf("got %q", got)
	}

	// URLs outside the public origin pass through untouched
	other := MakeSecure("http://elsewhere.test/x")
	if other != "http://elsewhere.test/x" {
		t.Fatalf("got %q", other)
	}
}
