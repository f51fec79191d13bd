package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryAllowsUpToMax(t *testing.T) {
	limiter := NewMemory(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	ok, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatal("fourth attempt should be blocked")
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	limiter := NewMemory(1, time.Minute)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatal("first key should be allowed")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.2"); !ok {
		t.Fatal("second key should be unaffected by the first")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); ok {
		t.Fatal("first key should now be blocked")
	}
}

func TestMemoryWindowResets(t *testing.T) {
	limiter := NewMemory(1, 20*time.Millisecond)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatal("first attempt should be allowed")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); ok {
		t.Fatal("second attempt should be blocked")
	}

	time.Sleep(30 * time.Millisecond)
	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatal("attempt after window should be allowed again")
	}
}
