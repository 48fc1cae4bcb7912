package logs_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"marquee/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marqueed.log")
	writeLog(t, path, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}

	lines, _, err = logs.Last(path, 10)
	if err != nil || len(lines) != 3 || lines[0] != "a" {
		t.Fatalf("expected every line, got %#v (%v)", lines, err)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result, got %#v %d %v", lines, offset, err)
	}
	if _, _, err := logs.Last(t.TempDir(), 5); err == nil {
		t.Fatal("expected directory error")
	}
}

type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func waitForLines(t *testing.T, c *collector, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d lines, got %#v", n, c.snapshot())
	return nil
}

func TestFollowEmitsCompleteAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marqueed.log")
	writeLog(t, path, "start\n")
	_, offset, err := logs.Last(path, 1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	got := &collector{}
	done := make(chan error, 1)
	go func() { done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, got.add) }()

	appendLog(t, path, "first\npart")
	lines := waitForLines(t, got, 1)
	if lines[0] != "first" {
		t.Fatalf("unexpected line %q", lines[0])
	}
	time.Sleep(50 * time.Millisecond)
	if n := len(got.snapshot()); n != 1 {
		t.Fatalf("partial line emitted early: %#v", got.snapshot())
	}

	appendLog(t, path, "ial\n")
	lines = waitForLines(t, got, 2)
	if lines[1] != "partial" {
		t.Fatalf("expected joined partial line, got %q", lines[1])
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Follow: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop on cancel")
	}
}

func TestFollowRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marqueed.log")
	writeLog(t, path, "old line one\nold line two\n")
	_, offset, err := logs.Last(path, 0)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := &collector{}
	go func() { _ = logs.Follow(ctx, path, offset, 10*time.Millisecond, got.add) }()

	writeLog(t, path, "rotated\n")
	lines := waitForLines(t, got, 1)
	if lines[0] != "rotated" {
		t.Fatalf("unexpected line after truncation %q", lines[0])
	}
}

func TestFilterConsoleLines(t *testing.T) {
	info := "2026-10-18 09:00:00 INFO  api: request completed user_id=neo status=200"
	warn := "2026-10-18 09:00:01 WARN  tmdb: breaker opened"
	errLine := `2026-10-18 09:00:02 ERROR api: handler failed user_id="trinity"`

	if got := logs.ParseLine(errLine); got.Level != slog.LevelError || got.Component != "api" || got.UserID != "trinity" {
		t.Fatalf("unexpected record %+v", got)
	}

	warnOnly := logs.Filter{MinLevel: slog.LevelWarn}
	if warnOnly.Match(info) || !warnOnly.Match(warn) || !warnOnly.Match(errLine) {
		t.Fatal("level filter mismatch")
	}
	if (logs.Filter{Component: "TMDB"}).Match(info) || !(logs.Filter{Component: "TMDB"}).Match(warn) {
		t.Fatal("component filter mismatch")
	}
	if !(logs.Filter{UserID: "neo"}).Match(info) || (logs.Filter{UserID: "neo"}).Match(warn) {
		t.Fatal("user filter mismatch")
	}
	if !warnOnly.Match("    continuation of a stack trace") {
		t.Fatal("lines without a level should pass the level check")
	}
}

func TestFilterJSONLines(t *testing.T) {
	line := `{"ts":"2026-10-18T09:00:00Z","level":"warn","msg":"embedding file not found","component":"facematch","user_id":"neo"}`
	rec := logs.ParseLine(line)
	if !rec.LevelKnown || rec.Level != slog.LevelWarn || rec.Component != "facematch" || rec.UserID != "neo" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if (logs.Filter{MinLevel: slog.LevelError}).Match(line) {
		t.Fatal("warn line should not pass an error filter")
	}
	if !(logs.Filter{MinLevel: slog.LevelInfo, Component: "facematch", UserID: "neo"}).Match(line) {
		t.Fatal("expected match")
	}
}
