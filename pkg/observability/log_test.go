package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.DebugLevel)
	h := NewLogHooks(l)
	ctx := context.Background()

	h.OnLoadComplete(ctx, "cells.csv", 72, time.Millisecond, nil)
	h.OnCacheHit(ctx, "artifact")
	h.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, errors.New("boom"))
	h.OnError(ctx, "req-1", "POST", "/api/render", errors.New("bad upload"))

	out := buf.String()
	for _, want := range []string{"load done", "rows=72", "cache hit", "type=artifact", "WARN", "render done", "boom", "id=req-1", "bad upload"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.InfoLevel)
	h := NewLogHooks(l)

	h.OnCacheMiss(context.Background(), "stats")
	h.OnStatsComplete(context.Background(), "ANOVA", 0.01, nil)
	if buf.Len() != 0 {
		t.Errorf("debug events logged at info level: %q", buf.String())
	}
}

func TestNewLogHooksNilLogger(t *testing.T) {
	if NewLogHooks(nil).logger == nil {
		t.Error("NewLogHooks(nil) should fall back to the default logger")
	}
}
