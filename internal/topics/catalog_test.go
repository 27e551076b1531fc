package topics

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()
	if n := len(c.List()); n != 8 {
		t.Errorf("len = %d, want 8", n)
	}
	if !c.Has("artificial-intelligence") {
		t.Error("missing artificial-intelligence")
	}
	if c.Has("gardening") {
		t.Error("unexpected topic gardening")
	}
}

func TestParse(t *testing.T) {
	list, err := Parse([]byte(`
topics:
  - value: go
    label: Go
  - value: rust
  - value: go
    label: Duplicate
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Label != "Go" || list[1].Label != "rust" {
		t.Errorf("list = %+v", list)
	}
}

func TestParse_Errors(t *testing.T) {
	for name, in := range map[string]string{
		"empty":    "topics: []",
		"no value": "topics:\n  - label: Orphan\n",
		"bad yaml": "topics: [",
	} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte("topics: [{value: a}]"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.WriteFile(path, []byte("topics: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(path); err == nil {
		t.Error("expected reload error")
	}
	if !c.Has("a") {
		t.Error("previous catalog lost")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte("topics: [{value: a}]"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan []string, 4)
	go Watch(ctx, c, path, logger, func(values []string) { reloaded <- values })

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("topics: [{value: b}]"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("catalog not reloaded")
	}
	if !c.Has("b") || c.Has("a") {
		t.Errorf("catalog = %+v", c.List())
	}
}
