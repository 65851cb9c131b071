package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRequestSetYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "requests.yaml")
	content := `
headers:
  X-Api-Key: sekrit
requests:
  - method: get
    endpoint: /users/1
  - method: POST
    endpoint: /users
    body:
      name: a
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write request set: %v", err)
	}

	set, err := LoadRequestSet(file)
	if err != nil {
		t.Fatalf("LoadRequestSet: %v", err)
	}
	if len(set.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(set.Requests))
	}
	if set.Headers["X-Api-Key"] != "sekrit" {
		t.Fatalf("unexpected headers: %v", set.Headers)
	}
	// Methods normalize to upper case.
	if set.Requests[0].Method != "GET" {
		t.Fatalf("method = %q, want GET", set.Requests[0].Method)
	}
	if set.Requests[1].Body["name"] != "a" {
		t.Fatalf("body not decoded: %v", set.Requests[1].Body)
	}
}

func TestLoadRequestSetJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "requests.json")
	content := `{"requests":[{"method":"GET","endpoint":"/ping"}]}`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write request set: %v", err)
	}

	set, err := LoadRequestSet(file)
	if err != nil {
		t.Fatalf("LoadRequestSet: %v", err)
	}
	if len(set.Requests) != 1 || set.Requests[0].Endpoint != "/ping" {
		t.Fatalf("unexpected request set: %+v", set)
	}
}

func TestLoadRequestSetRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"empty.yaml":   "requests: []\n",
		"method.yaml":  "requests:\n  - method: DELETE\n    endpoint: /x\n",
		"missing.yaml": "requests:\n  - method: GET\n    endpoint: \"\"\n",
	}
	for name, content := range cases {
		file := filepath.Join(dir, name)
		if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := LoadRequestSet(file); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	if _, err := LoadRequestSet(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	unsupported := filepath.Join(dir, "requests.toml")
	if err := os.WriteFile(unsupported, []byte("x"), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	if _, err := LoadRequestSet(unsupported); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}
