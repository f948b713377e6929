package cache

import (
	"context"
	"testing"
	"time"
)

type ttlRecorder struct {
	Cache
	got time.Duration
}

func (r *ttlRecorder) Set(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
	r.got = ttl
	return nil
}

func TestWithTTL(t *testing.T) {
	rec := &ttlRecorder{Cache: NewNullCache()}
	c := WithTTL(rec, 2*time.Hour)

	if err := c.Set(context.Background(), "k", []byte("v"), ArtifactTTL); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if rec.got != 2*time.Hour {
		t.Errorf("ttl = %v, want 2h", rec.got)
	}
}

func TestWithTTLNonPositive(t *testing.T) {
	rec := &ttlRecorder{Cache: NewNullCache()}
	if c := WithTTL(rec, 0); c != Cache(rec) {
		t.Error("WithTTL(c, 0) should return c unchanged")
	}
}
