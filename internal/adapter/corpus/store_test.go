package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "embeddings.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadValidCorpus(t *testing.T) {
	path := writeFile(t, `[
		{"id": "a", "text": "first", "vector": [0.1, 0.2]},
		{"id": "b", "text": "second", "vector": [0.3, 0.4]}
	]`)

	store, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if store.Size() != 2 {
		t.Errorf("expected 2 records, got %d", store.Size())
	}
	if !store.Enabled() {
		t.Error("expected retrieval enabled")
	}
	if store.Records()[0].ID != "a" {
		t.Errorf("unexpected first record: %v", store.Records()[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsMalformedRecords(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{not json`},
		{"not an array", `{"id": "a"}`},
		{"missing id", `[{"text": "x", "vector": [1]}]`},
		{"missing text", `[{"id": "a", "vector": [1]}]`},
		{"missing vector", `[{"id": "a", "text": "x"}]`},
		{"one bad among good", `[
			{"id": "a", "text": "x", "vector": [1]},
			{"id": "b", "text": "y", "vector": []}
		]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.content)); err == nil {
				t.Error("expected load to be rejected as a whole")
			}
		})
	}
}

func TestEmptyStore(t *testing.T) {
	store := Empty()
	if store.Size() != 0 {
		t.Errorf("expected size 0, got %d", store.Size())
	}
	if store.Enabled() {
		t.Error("empty store must report retrieval disabled")
	}
	if err := store.Reload(); err == nil {
		t.Error("reload of a sourceless store must fail")
	}
}

func TestReloadSwapsSnapshot(t *testing.T) {
	path := writeFile(t, `[{"id": "a", "text": "x", "vector": [1]}]`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	next := `[
		{"id": "a", "text": "x", "vector": [1]},
		{"id": "b", "text": "y", "vector": [2]}
	]`
	if err := os.WriteFile(path, []byte(next), 0o644); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}

	if err := store.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if store.Size() != 2 {
		t.Errorf("expected 2 records after reload, got %d", store.Size())
	}
}

func TestReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	path := writeFile(t, `[{"id": "a", "text": "x", "vector": [1]}]`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := os.WriteFile(path, []byte(`broken`), 0o644); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}

	if err := store.Reload(); err == nil {
		t.Fatal("expected reload to fail")
	}
	if store.Size() != 1 {
		t.Errorf("previous snapshot lost: size %d", store.Size())
	}
}
