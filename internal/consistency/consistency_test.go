package consistency

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wudi/specguard/internal/rules"
)

const cleanSpec = `
info:
  version: 1.0.0
paths:
  /users:
    get:
      operationId: listUsers
`

const dirtySpec = `
paths:
  /Bad_Path:
    get: {}
`

func writeSpec(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckPreservesInputOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeSpec(t, dir, "clean.yaml", cleanSpec),
		writeSpec(t, dir, "dirty.yaml", dirtySpec),
		writeSpec(t, dir, "clean2.yaml", cleanSpec),
	}

	results := Check(context.Background(), paths, rules.Builtin(), 2)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("result %d out of order: %q", i, r.Path)
		}
	}

	if results[0].Err != nil || results[0].Report.Score != 100 {
		t.Fatalf("clean spec: %+v", results[0])
	}
	if results[1].Report.Score >= 100 {
		t.Fatalf("dirty spec should lose points: %+v", results[1])
	}
}

func TestCheckReportsPerDocumentErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeSpec(t, dir, "good.yaml", cleanSpec)
	missing := filepath.Join(dir, "missing.yaml")
	malformed := writeSpec(t, dir, "bad.yaml", "- not\n- a\n- spec\n")

	results := Check(context.Background(), []string{good, missing, malformed}, rules.Builtin(), 0)

	if results[0].Err != nil {
		t.Fatalf("good spec errored: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Fatal("missing file must produce an error result")
	}
	if results[2].Err == nil {
		t.Fatal("malformed document must produce an error result")
	}
}

func TestCheckUnboundedWorkers(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 8; i++ {
		paths = append(paths, writeSpec(t, dir, filepath.Base(dir)+string(rune('a'+i))+".yaml", cleanSpec))
	}

	results := Check(context.Background(), paths, rules.Builtin(), 0)
	for _, r := range results {
		if r.Err != nil || r.Report.Score != 100 {
			t.Fatalf("unexpected result: %+v", r)
		}
	}
}
