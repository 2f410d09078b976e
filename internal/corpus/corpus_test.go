package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rants.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := writeCorpus(t, `
- date: "2024-01-01"
  source: "someone"
  type: C
  text: "first"
- date: "2024-01-02"
  source: "someone else"
  type: p
  text: "second"
`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	entries := store.Entries()
	if entries[0].Category != CategoryCode {
		t.Fatalf("Category = %q, want %q", entries[0].Category, CategoryCode)
	}
	// lower-case type letters are accepted
	if entries[1].Category != CategoryPersonal {
		t.Fatalf("Category = %q, want %q", entries[1].Category, CategoryPersonal)
	}
}

func TestLoadFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "{{{"},
		{name: "empty corpus", content: "[]"},
		{name: "missing text", content: "- date: \"2024-01-01\"\n  type: C\n"},
		{name: "missing date", content: "- type: C\n  text: \"x\"\n"},
		{name: "missing type", content: "- date: \"2024-01-01\"\n  text: \"x\"\n"},
		{name: "unknown type letter", content: "- date: \"2024-01-01\"\n  type: Z\n  text: \"x\"\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeCorpus(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Fatal("expected load error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
