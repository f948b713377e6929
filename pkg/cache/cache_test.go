package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a miss")
	}
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("svg"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "svg" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !errors.Is(err, os.ErrNotExist) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("x"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
	h2, err := HashReader(strings.NewReader("hello"))
	if err != nil || h2 != h1 {
		t.Errorf("HashReader = %q, %v; want %q", h2, err, h1)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tk := k.TableKey([]byte("a,b\n1,2\n"))
	if !strings.HasPrefix(tk, "table:") {
		t.Errorf("TableKey unexpected: %s", tk)
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{GridSpan: "intersection", Width: 0.8})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{GridSpan: "union", Width: 0.8})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if lk1 != k.LayoutKey("hash123", LayoutKeyOpts{GridSpan: "intersection", Width: 0.8}) {
		t.Error("LayoutKey should be deterministic")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", DPI: 300})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}

	sk1 := k.StatsKey("hash123", StatsKeyOpts{Paired: true})
	sk2 := k.StatsKey("hash123", StatsKeyOpts{})
	if sk1 == sk2 || !strings.HasPrefix(sk1, "stats:") {
		t.Errorf("StatsKey unexpected: %s / %s", sk1, sk2)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "sv:")

	keys := []string{
		scoped.TableKey([]byte("x")),
		scoped.LayoutKey("h", LayoutKeyOpts{}),
		scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}),
		scoped.StatsKey("h", StatsKeyOpts{}),
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, "sv:") {
			t.Errorf("key not prefixed: %s", key)
		}
	}

	if got := NewScopedKeyer(nil, "p:").TableKey([]byte("x")); got != "p:"+NewDefaultKeyer().TableKey([]byte("x")) {
		t.Errorf("nil inner keyer: %s", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should unwrap")
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	calls = 0
	errPlain := errors.New("plain")
	if err := RetryWithBackoff(ctx, func() error { calls++; return errPlain }); err != errPlain || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrUnavailable) })
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestNewRedisCacheErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewRedisCache(ctx, "not a url"); err == nil {
		t.Error("expected a parse error")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, "redis://127.0.0.1:1/0")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("unreachable server: got %v, want ErrUnavailable", err)
	}
}

func newMiniRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newMiniRedisCache(t)

	key := "superviolin:test:" + Hash([]byte(t.Name()))
	data, hit, err := c.Get(ctx, key)
	if err != nil || hit || data != nil {
		t.Fatalf("Get on missing key = %q, %v, %v; want a miss", data, hit, err)
	}

	if err := c.Set(ctx, key, []byte("png"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err = c.Get(ctx, key)
	if err != nil || !hit || string(data) != "png" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newMiniRedisCache(t)

	if err := c.Set(ctx, "short", []byte("svg"), time.Second); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("pdf"), 0); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Second)

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry still served")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl expired")
	}
}

func TestNewRedisCacheURL(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()

	scoped := WithTTL(c, time.Hour)
	if err := scoped.Set(context.Background(), "k", []byte("v"), ArtifactTTL); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("k"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}
}
