package main

import (
	"strings"
	"testing"

	"ashhabsport/backend/internal/config"
)

func TestSessionSecret_AcceptsLongSecret(t *testing.T) {
	secret := strings.Repeat("a", 32)
	got, err := sessionSecret(config.Config{SessionSecret: secret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != secret {
		t.Fatalf("expected configured secret back, got %q", got)
	}
}

func TestSessionSecret_RejectsShortSecret(t *testing.T) {
	_, err := sessionSecret(config.Config{SessionSecret: "too-short"})
	if err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestSessionSecret_GeneratesWhenUnset(t *testing.T) {
	first, err := sessionSecret(config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) < 32 {
		t.Fatalf("generated secret too short: %d chars", len(first))
	}

	second, err := sessionSecret(config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatal("expected random secrets to differ")
	}
}
