package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/QuillFuzz/QuillFuzz/internal/adapters/filesystem"
	"github.com/QuillFuzz/QuillFuzz/internal/testutil/mocks"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	fs := mocks.NewFileSystem()

	cfg, err := Load(fs, "/project/quillfuzz.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != BackendAuto {
		t.Errorf("Backend = %q, want auto", cfg.Backend)
	}
	if cfg.Native.Binary != "qir-runner" {
		t.Errorf("Native.Binary = %q", cfg.Native.Binary)
	}
	if len(cfg.Packages.BuildSupport) == 0 {
		t.Error("BuildSupport empty in defaults")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	fs := mocks.NewFileSystem()
	raw := `
backend: brew
python: "3.11"
campaign:
  generator: src/gen_w_improve.py
  tester: src/circuit_assembler.py
  workers: 4
  language: qiskit
`
	if err := fs.WriteFile("/project/quillfuzz.yaml", []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fs, "/project/quillfuzz.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != BackendBrew {
		t.Errorf("Backend = %q, want brew", cfg.Backend)
	}
	if cfg.Python != "3.11" {
		t.Errorf("Python = %q, want 3.11", cfg.Python)
	}
	if cfg.Campaign.Workers != 4 || cfg.Campaign.Language != "qiskit" {
		t.Errorf("Campaign = %+v", cfg.Campaign)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Native.Repo == "" {
		t.Error("Native.Repo lost its default")
	}
}

func TestLoad_PackageSpecScalarAndMapForms(t *testing.T) {
	fs := mocks.NewFileSystem()
	raw := `
packages:
  build_support: [pip, setuptools, wheel]
  main:
    - qiskit
    - name: pyzx
      no_build_isolation: true
  upgrade_latest: guppylang
`
	if err := fs.WriteFile("/p/quillfuzz.yaml", []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fs, "/p/quillfuzz.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Packages.Main) != 2 {
		t.Fatalf("len(Main) = %d, want 2", len(cfg.Packages.Main))
	}
	if cfg.Packages.Main[0].Name != "qiskit" || cfg.Packages.Main[0].NoBuildIsolation {
		t.Errorf("Main[0] = %+v", cfg.Packages.Main[0])
	}
	if cfg.Packages.Main[1].Name != "pyzx" || !cfg.Packages.Main[1].NoBuildIsolation {
		t.Errorf("Main[1] = %+v", cfg.Packages.Main[1])
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "nix" }},
		{"empty python", func(c *Config) { c.Python = "" }},
		{"missing native repo", func(c *Config) { c.Native.Repo = "" }},
		{"zero workers", func(c *Config) { c.Campaign.Workers = 0 }},
		{"isolation without build support", func(c *Config) {
			c.Packages.BuildSupport = nil
			c.Packages.Main = []PackageSpec{{Name: "pyzx", NoBuildIsolation: true}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil")
			}
		})
	}
}

func TestResolveRoot_Precedence(t *testing.T) {
	fs := mocks.NewFileSystem()

	// Explicit beats everything.
	got, err := ResolveRoot(fs, "/explicit/root")
	if err != nil {
		t.Fatalf("ResolveRoot() error = %v", err)
	}
	if got != "/explicit/root" {
		t.Errorf("ResolveRoot(explicit) = %q", got)
	}

	// Env var beats discovery.
	t.Setenv(EnvRoot, "/env/root")
	got, err = ResolveRoot(fs, "")
	if err != nil {
		t.Fatalf("ResolveRoot() error = %v", err)
	}
	if got != "/env/root" {
		t.Errorf("ResolveRoot(env) = %q", got)
	}
}

func TestResolveRoot_WalksUpToMarkerFile(t *testing.T) {
	t.Setenv(EnvRoot, "")

	root := t.TempDir()
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, DefaultFileName), []byte("backend: auto\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveRoot(filesystem.NewRealFileSystem(), "")
	if err != nil {
		t.Fatalf("ResolveRoot() error = %v", err)
	}
	// Resolve symlinks on both sides (macOS tempdirs live under /var -> /private/var).
	wantResolved, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != wantResolved {
		t.Errorf("ResolveRoot() = %q, want %q", gotResolved, wantResolved)
	}
}
