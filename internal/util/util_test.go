// internal/util/util_test.go
package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileAndDirExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.c")
	if err := os.WriteFile(file, []byte("int main(){}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if !FileExists(file) {
		t.Fatalf("FileExists(%q) = false", file)
	}
	if FileExists(dir) {
		t.Fatalf("FileExists(dir) = true")
	}
	if !DirExists(dir) {
		t.Fatalf("DirExists(%q) = false", dir)
	}
	if DirExists(file) {
		t.Fatalf("DirExists(file) = true")
	}
	if FileExists(filepath.Join(dir, "missing")) || DirExists(filepath.Join(dir, "missing")) {
		t.Fatalf("missing path reported as existing")
	}
}

func TestBaseName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Benchmarks/Algorithm_Benchmarks/C/max_subarry.c": "max_subarry",
		"sum.rs":       "sum",
		"noext":        "noext",
		"dir/a.b.c":    "a.b",
	}
	for in, want := range cases {
		if got := BaseName(in); got != want {
			t.Fatalf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "no truncation", in: "hello", max: 10, want: "hello"},
		{name: "ascii truncation", in: "helloworld", max: 5, want: "hello…"},
		{name: "multibyte truncation", in: "こんにちは世界", max: 4, want: "こんにち…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Fatalf("TruncateRunes(%q,%d)=%q want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestOneLine(t *testing.T) {
	t.Parallel()

	if got := OneLine("  0.125\n\tdone \n"); got != "0.125 done" {
		t.Fatalf("OneLine = %q", got)
	}
}
