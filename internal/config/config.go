// Package config loads the orchestrator configuration and resolves the
// project root.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// DefaultFileName is the config file searched for when no path is given.
const DefaultFileName = "quillfuzz.yaml"

// Backend kinds.
const (
	BackendAuto      = "auto"
	BackendConda     = "conda"
	BackendBrew      = "brew"
	BackendContainer = "container"
)

// Config is the orchestrator configuration.
type Config struct {
	// Backend selects the provisioning strategy: auto, conda, brew, container.
	Backend string `yaml:"backend"`

	// Root overrides the project root; empty means resolve it.
	Root string `yaml:"root"`

	// Python is the interpreter version the project environment is bound to.
	Python string `yaml:"python"`

	Native   NativeConfig   `yaml:"native"`
	Packages PackagesConfig `yaml:"packages"`
	Campaign CampaignConfig `yaml:"campaign"`
}

// NativeConfig describes the one component built from source.
type NativeConfig struct {
	// Repo is the pinned upstream repository. There is no fallback source.
	Repo string `yaml:"repo"`

	// Binary is the release binary name expected under target/release.
	Binary string `yaml:"binary"`

	// Wrapper is the package installed into the project environment after
	// the binary is rescued.
	Wrapper string `yaml:"wrapper"`
}

// PackageSpec is one manifest entry. In YAML it is either a bare string or
// a map with options.
type PackageSpec struct {
	Name             string `yaml:"name"`
	NoBuildIsolation bool   `yaml:"no_build_isolation"`
}

// UnmarshalYAML accepts both "pkg" and {name: pkg, no_build_isolation: true}.
func (p *PackageSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.Name = value.Value
		return nil
	}

	type rawSpec PackageSpec
	var raw rawSpec
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("package entry must have a name")
	}
	*p = PackageSpec(raw)
	return nil
}

// PackagesConfig is the ordered dependency manifest.
type PackagesConfig struct {
	// BuildSupport packages install first, unconditionally. Packages that
	// disable build isolation rely on these being present.
	BuildSupport []string `yaml:"build_support"`

	// Main is the ordered main dependency set.
	Main []PackageSpec `yaml:"main"`

	// UpgradeLatest names the one fast-moving package that gets a final
	// --upgrade pass.
	UpgradeLatest string `yaml:"upgrade_latest"`
}

// CampaignConfig describes the external generator and tester.
type CampaignConfig struct {
	Generator string `yaml:"generator"`
	Tester    string `yaml:"tester"`
	Workers   int    `yaml:"workers"`
	Language  string `yaml:"language"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendAuto,
		Python:  "3.12",
		Native: NativeConfig{
			Repo:    "https://github.com/qir-alliance/qir-runner",
			Binary:  "qir-runner",
			Wrapper: "qirrunner",
		},
		Packages: PackagesConfig{
			BuildSupport: []string{"pip", "setuptools", "wheel"},
			Main: []PackageSpec{
				{Name: "pyyaml"},
				{Name: "tqdm"},
				{Name: "openai"},
				{Name: "qiskit"},
				{Name: "pytket"},
				{Name: "pyzx", NoBuildIsolation: true},
				{Name: "git+https://github.com/CQCL/guppylang.git"},
			},
			UpgradeLatest: "guppylang",
		},
		Campaign: CampaignConfig{
			Generator: "src/gen_w_improve.py",
			Tester:    "src/circuit_assembler.py",
			Workers:   8,
			Language:  "guppy",
		},
	}
}

// Load reads the config file at path over the defaults. A missing file is
// not an error; the defaults apply.
func Load(fs ports.FileSystem, path string) (*Config, error) {
	cfg := Default()

	if path != "" && fs.Exists(path) {
		raw, err := fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendConda, BackendBrew, BackendContainer:
	default:
		return fmt.Errorf("unknown backend %q (want auto, conda, brew, or container)", c.Backend)
	}
	if c.Python == "" {
		return fmt.Errorf("python version must not be empty")
	}
	if c.Native.Repo == "" || c.Native.Binary == "" {
		return fmt.Errorf("native component repo and binary are required")
	}
	if c.Campaign.Workers <= 0 {
		return fmt.Errorf("campaign workers must be positive, got %d", c.Campaign.Workers)
	}

	// The ordering invariant is structural: build-support installs as one
	// phase before the main set, so the only misconfiguration to catch is
	// disabling build isolation with no build-support phase at all.
	for _, pkg := range c.Packages.Main {
		if pkg.NoBuildIsolation && len(c.Packages.BuildSupport) == 0 {
			return fmt.Errorf("package %q disables build isolation but no build_support packages are configured", pkg.Name)
		}
	}
	return nil
}
