package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

func TestEmbeddedRejection(t *testing.T) {
	c := Default()
	got := c.Rejection("illegal_move", map[string]any{"Move": "e2e5"}, "fallback")
	if got != "e2e5 is not a legal move in this position." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := c.Rejection("illegal_move", nil, "fallback"); got != "fallback" {
		t.Fatalf("missing data must fall back, got %q", got)
	}
	if got := c.Rejection("no_such_code", nil, "fallback"); got != "fallback" {
		t.Fatalf("unknown code must fall back, got %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("a.yaml", "errors:\n  not_your_turn: \"Wait for your opponent.\"\n")
	write("notes.txt", "ignored")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got, _ := c.Render("errors.not_your_turn", nil); got != "Wait for your opponent." {
		t.Fatalf("override not applied: %q", got)
	}
	if got, _ := c.Render("errors.game_over", nil); got != "The game is already over." {
		t.Fatalf("embedded default lost: %q", got)
	}

	write("b.yml", "errors:\n  not_your_turn: \"dup\"\n")
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestRejectsNonStringLeaves(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("errors:\n  code: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for numeric leaf")
	}
}

func TestBundledCoversEveryRejectionCode(t *testing.T) {
	c := Default()
	if err := c.RequireRejections(chessdto.RejectionCodes...); err != nil {
		t.Fatalf("bundled catalog: %v", err)
	}
	err := c.RequireRejections("illegal_move", "made_up", "also_made_up")
	if err == nil || !strings.Contains(err.Error(), "made_up, also_made_up") {
		t.Fatalf("expected missing codes to be listed, got %v", err)
	}
}

func TestBrokenOverrideFailsAtLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("errors:\n  game_over: \"{{.Oops\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := New(dir)
	if err == nil || !strings.Contains(err.Error(), "compile errors.game_over in bad.yaml") {
		t.Fatalf("expected compile error, got %v", err)
	}
}

func TestKeysSorted(t *testing.T) {
	keys := Default().Keys()
	if len(keys) != len(chessdto.RejectionCodes) {
		t.Fatalf("got %d keys, want %d", len(keys), len(chessdto.RejectionCodes))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}
