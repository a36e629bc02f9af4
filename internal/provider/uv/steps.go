package uv

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// InstallStep installs the uv binary itself.
type InstallStep struct {
	manager *Uv
	id      pipeline.StepID
}

// NewInstallStep creates the uv install step.
func NewInstallStep(manager *Uv) *InstallStep {
	return &InstallStep{
		manager: manager,
		id:      pipeline.MustNewStepID("uv:install"),
	}
}

// ID returns the step identifier.
func (s *InstallStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *InstallStep) DependsOn() []pipeline.StepID {
	return nil
}

// Check reports satisfied when the uv binary exists.
func (s *InstallStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.manager.uvOnPath() {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply runs the standalone installer.
func (s *InstallStep) Apply(ctx pipeline.RunContext) error {
	script := fmt.Sprintf("curl -fsSL %s | sh", installerURL)
	result, err := s.manager.runner.Run(ctx.Context(), "bash", "-c", script)
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("uv installer", result.ExitCode, result.Stderr)
	}
	return nil
}

// pyprojectDoc is the manifest shape written for a fresh project.
type pyprojectDoc struct {
	Project struct {
		Name           string   `toml:"name"`
		Version        string   `toml:"version"`
		RequiresPython string   `toml:"requires-python"`
		Dependencies   []string `toml:"dependencies"`
	} `toml:"project"`
}

// PyprojectStep writes the project manifest if absent. An existing
// manifest is never touched, whatever it contains.
type PyprojectStep struct {
	manager *Uv
	id      pipeline.StepID
}

// NewPyprojectStep creates the manifest step.
func NewPyprojectStep(manager *Uv) *PyprojectStep {
	return &PyprojectStep{
		manager: manager,
		id:      pipeline.MustNewStepID("uv:pyproject"),
	}
}

// ID returns the step identifier.
func (s *PyprojectStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the install step.
func (s *PyprojectStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("uv:install")}
}

// Check reports satisfied when the manifest file exists.
func (s *PyprojectStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.manager.fs.Exists(s.manager.pyprojectPath()) {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply writes a minimal manifest bound to the configured interpreter.
func (s *PyprojectStep) Apply(_ pipeline.RunContext) error {
	var doc pyprojectDoc
	doc.Project.Name = "quillfuzz-workspace"
	doc.Project.Version = "0.1.0"
	doc.Project.RequiresPython = ">=" + s.manager.python
	doc.Project.Dependencies = []string{}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding pyproject: %w", err)
	}
	if err := s.manager.fs.WriteFile(s.manager.pyprojectPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing pyproject: %w", err)
	}
	return nil
}

// VenvStep creates the virtual environment bound to the configured
// interpreter. An existing environment is left as-is even if it was built
// against a different interpreter version.
type VenvStep struct {
	manager *Uv
	id      pipeline.StepID
}

// NewVenvStep creates the virtual environment step.
func NewVenvStep(manager *Uv) *VenvStep {
	return &VenvStep{
		manager: manager,
		id:      pipeline.MustNewStepID("uv:venv"),
	}
}

// ID returns the step identifier.
func (s *VenvStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the manifest step.
func (s *VenvStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("uv:pyproject")}
}

// Check reports satisfied when the environment's interpreter exists.
func (s *VenvStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.manager.fs.Exists(s.manager.VenvPython()) {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply creates the environment with the requested interpreter. uv
// downloads the interpreter if the host lacks it.
func (s *VenvStep) Apply(ctx pipeline.RunContext) error {
	result, err := s.manager.runner.RunWith(ctx.Context(), ports.Invocation{
		Command: s.manager.uvBin,
		Args:    []string{"venv", "--python", s.manager.python, s.manager.VenvDir()},
		Dir:     s.manager.root,
		Env:     homeEnviron(ctx),
	})
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("uv venv", result.ExitCode, result.Stderr)
	}
	return nil
}

// PipConfStep writes the environment-local pip configuration.
type PipConfStep struct {
	manager *Uv
	id      pipeline.StepID
}

// NewPipConfStep creates the pip configuration step.
func NewPipConfStep(manager *Uv) *PipConfStep {
	return &PipConfStep{
		manager: manager,
		id:      pipeline.MustNewStepID("uv:pip-conf"),
	}
}

// ID returns the step identifier.
func (s *PipConfStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the venv step.
func (s *PipConfStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("uv:venv")}
}

// Check reports satisfied when the configuration file exists.
func (s *PipConfStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.manager.fs.Exists(s.manager.pipConfPath()) {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply writes the pip defaults this environment installs under. Source
// builds of the quantum packages are slow, so the timeout is generous.
func (s *PipConfStep) Apply(_ pipeline.RunContext) error {
	cfg := ini.Empty()

	global, err := cfg.NewSection("global")
	if err != nil {
		return fmt.Errorf("pip.conf section: %w", err)
	}
	if _, err := global.NewKey("timeout", "120"); err != nil {
		return fmt.Errorf("pip.conf key: %w", err)
	}

	install, err := cfg.NewSection("install")
	if err != nil {
		return fmt.Errorf("pip.conf section: %w", err)
	}
	if _, err := install.NewKey("no-warn-script-location", "true"); err != nil {
		return fmt.Errorf("pip.conf key: %w", err)
	}

	var buf writerBuffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return fmt.Errorf("encoding pip.conf: %w", err)
	}
	if err := s.manager.fs.WriteFile(s.manager.pipConfPath(), buf.data, 0o644); err != nil {
		return fmt.Errorf("writing pip.conf: %w", err)
	}
	return nil
}

// writerBuffer collects ini output for the filesystem port.
type writerBuffer struct {
	data []byte
}

func (w *writerBuffer) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}
