// internal/appconfig/load_integration_test.go
package appconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultPathFromWorkingDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}

	payload := `{
  "mode": "optdiff",
  "categories": ["Benchmarks/Performance_Benchmarks"],
  "toolchains": { "clang": "clang", "opt": "opt", "clangLinkFlags": ["-lpthread", "-lgmp"] },
  "compileTimeout": 30
}`
	path := filepath.Join(configDir, "crossbench.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Mode != ModeOptDiff {
		t.Fatalf("mode = %q", cfg.Mode)
	}
	if cfg.LedgerPath() != DefaultOptDiffLedger {
		t.Fatalf("ledger path = %q", cfg.LedgerPath())
	}
	if cfg.Toolchains.Clang != "clang" || len(cfg.Toolchains.ClangLinkFlags) != 2 || len(cfg.Toolchains.CCLinkFlags) != 0 {
		t.Fatalf("toolchains not loaded: %+v", cfg.Toolchains)
	}
	if cfg.CompileTimeout().Seconds() != 30 {
		t.Fatalf("compile timeout = %v", cfg.CompileTimeout())
	}
}

func TestValidateFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"hosts": []}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := ValidateFile(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestShippedConfigKeepsLinkageOnClang(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "crossbench.json"))
	if err != nil {
		t.Fatalf("Load shipped config: %v", err)
	}
	if len(cfg.Toolchains.CCLinkFlags) != 0 || len(cfg.Toolchains.CCIncludeDirs) != 0 {
		t.Fatalf("compare-mode cc must build with bare flags, got include=%v link=%v", cfg.Toolchains.CCIncludeDirs, cfg.Toolchains.CCLinkFlags)
	}
	found := false
	for _, f := range cfg.Toolchains.ClangLinkFlags {
		if f == "-lgmp" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected -lgmp on clang link flags, got %v", cfg.Toolchains.ClangLinkFlags)
	}
}
