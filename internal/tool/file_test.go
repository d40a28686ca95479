package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFile_OutsideAllowedBase(t *testing.T) {
	sandbox := NewSandbox([]string{t.TempDir()})
	rd := NewReadFile(sandbox)

	tests := []struct {
		name string
		path string
	}{
		{"system file", "/etc/passwd"},
		{"parent escape", filepath.Join(t.TempDir(), "..", "..", "etc", "passwd")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, _ := json.Marshal(readFileParams{Path: tt.path})
			res := rd.Execute(context.Background(), params)

			if !res.IsError {
				t.Error("expected access-denied result")
			}
			if !strings.Contains(res.Content, "denied") {
				t.Errorf("Content = %q, want access-denied message", res.Content)
			}
		})
	}
}

func TestReadFile_RoundTrip(t *testing.T) {
	base := t.TempDir()
	sandbox := NewSandbox([]string{base})

	path := filepath.Join(base, "notes.txt")
	if err := os.WriteFile(path, []byte("hello from disk"), 0644); err != nil {
		t.Fatal(err)
	}

	rd := NewReadFile(sandbox)
	params, _ := json.Marshal(readFileParams{Path: path})
	res := rd.Execute(context.Background(), params)

	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if res.Content != "hello from disk" {
		t.Errorf("Content = %q", res.Content)
	}
}

func TestReadFile_Truncated(t *testing.T) {
	base := t.TempDir()
	sandbox := NewSandbox([]string{base})

	path := filepath.Join(base, "big.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("a", readOutputLimit+100)), 0644); err != nil {
		t.Fatal(err)
	}

	rd := NewReadFile(sandbox)
	params, _ := json.Marshal(readFileParams{Path: path})
	res := rd.Execute(context.Background(), params)

	if len(res.Content) != readOutputLimit {
		t.Errorf("length = %d, want %d", len(res.Content), readOutputLimit)
	}
}

func TestReadFile_Missing(t *testing.T) {
	base := t.TempDir()
	rd := NewReadFile(NewSandbox([]string{base}))

	params, _ := json.Marshal(readFileParams{Path: filepath.Join(base, "nope.txt")})
	res := rd.Execute(context.Background(), params)

	if !res.IsError || !strings.Contains(res.Content, "not found") {
		t.Errorf("Content = %q, want not-found message", res.Content)
	}
}

func TestWriteFile_CreatesParents(t *testing.T) {
	base := t.TempDir()
	wr := NewWriteFile(NewSandbox([]string{base}))

	path := filepath.Join(base, "a", "b", "c.txt")
	params, _ := json.Marshal(writeFileParams{Path: path, Content: "nested"})
	res := wr.Execute(context.Background(), params)

	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if !strings.Contains(res.Content, "6 bytes") {
		t.Errorf("Content = %q, want byte count", res.Content)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "nested" {
		t.Errorf("file content = %q", data)
	}
}

func TestWriteFile_OutsideAllowedBase(t *testing.T) {
	wr := NewWriteFile(NewSandbox([]string{t.TempDir()}))

	params, _ := json.Marshal(writeFileParams{Path: "/etc/evil.txt", Content: "x"})
	res := wr.Execute(context.Background(), params)

	if !res.IsError || !strings.Contains(res.Content, "denied") {
		t.Errorf("Content = %q, want access-denied message", res.Content)
	}
	if _, err := os.Stat("/etc/evil.txt"); !os.IsNotExist(err) {
		t.Error("file must not have been written")
	}
}

func TestSandbox_SymlinkEscape(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(base, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	sandbox := NewSandbox([]string{base})
	if _, err := sandbox.Resolve(filepath.Join(link, "secret.txt")); err == nil {
		t.Error("expected symlink escape to be rejected")
	}
}
