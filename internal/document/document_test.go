package document

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParsePreservesMappingOrder(t *testing.T) {
	tree, err := Parse([]byte("zebra: 1\nalpha: 2\nmid: 3\n"))
	if err != nil {
		t.Fatal(err)
	}

	entries, ok := Mapping(tree)
	if !ok {
		t.Fatal("expected a mapping root")
	}
	want := []string{"zebra", "alpha", "mid"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, k := range want {
		if entries[i].Key != k {
			t.Errorf("entry %d: got key %q, want %q", i, entries[i].Key, k)
		}
	}
}

func TestParseJSON(t *testing.T) {
	tree, err := Parse([]byte(`{"info": {"version": "1.0.0"}, "paths": {}}`))
	if err != nil {
		t.Fatal(err)
	}
	info, ok := Get(tree, "info")
	if !ok {
		t.Fatal("expected info key")
	}
	if got := GetString(info, "version"); got != "1.0.0" {
		t.Fatalf("version = %q, want 1.0.0", got)
	}
}

func TestMappingPlainMapSortsKeys(t *testing.T) {
	entries, ok := Mapping(map[string]any{"b": 1, "a": 2, "c": 3})
	if !ok {
		t.Fatal("expected a mapping")
	}
	want := []string{"a", "b", "c"}
	for i, k := range want {
		if entries[i].Key != k {
			t.Errorf("entry %d: got key %q, want %q", i, entries[i].Key, k)
		}
	}
}

func TestMappingNonMapping(t *testing.T) {
	if _, ok := Mapping([]any{1, 2}); ok {
		t.Fatal("sequence is not a mapping")
	}
	if _, ok := Mapping("scalar"); ok {
		t.Fatal("scalar is not a mapping")
	}
}

func TestGetBool(t *testing.T) {
	tree, err := Parse([]byte("deprecated: true\nname: x\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !GetBool(tree, "deprecated") {
		t.Fatal("expected deprecated=true")
	}
	if GetBool(tree, "name") {
		t.Fatal("non-bool value must read as false")
	}
	if GetBool(tree, "missing") {
		t.Fatal("missing key must read as false")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte("info:\n  version: 2.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tree, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	info, _ := Get(tree, "info")
	if got := GetString(info, "version"); got != "2.0.0" {
		t.Fatalf("version = %q, want 2.0.0", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("a: [unclosed\n")); err == nil {
		t.Fatal("expected parse error")
	}
}
