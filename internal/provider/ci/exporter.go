// Package ci exports the composed environment to GitHub Actions. When the
// CI marker is absent the export is a silent no-op; this is a capability
// check, not an idempotency check, so nothing is ever written outside CI.
package ci

import (
	"os"
	"strings"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// GitHub Actions marker variables.
const (
	MarkerVar   = "GITHUB_ACTIONS"
	EnvFileVar  = "GITHUB_ENV"
	PathFileVar = "GITHUB_PATH"
)

// Exporter appends environment bindings to the Actions env and path files.
type Exporter struct {
	fs ports.FileSystem

	// lookupEnv is swappable for tests; defaults to os.LookupEnv.
	lookupEnv func(string) (string, bool)
}

// NewExporter creates an Exporter.
func NewExporter(fs ports.FileSystem) *Exporter {
	return &Exporter{fs: fs, lookupEnv: os.LookupEnv}
}

// InCI reports whether the Actions marker is set.
func (e *Exporter) InCI() bool {
	v, ok := e.lookupEnv(MarkerVar)
	return ok && v == "true"
}

// Steps returns the single export step.
func (e *Exporter) Steps() []pipeline.Step {
	return []pipeline.Step{NewExportStep(e)}
}

// ExportStep writes the descriptor to the Actions files.
type ExportStep struct {
	exporter *Exporter
	id       pipeline.StepID
}

// NewExportStep creates the export step.
func NewExportStep(exporter *Exporter) *ExportStep {
	return &ExportStep{
		exporter: exporter,
		id:       pipeline.MustNewStepID("ci:export"),
	}
}

// ID returns the step identifier.
func (s *ExportStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *ExportStep) DependsOn() []pipeline.StepID {
	return nil
}

// Check reports satisfied outside CI: there is nothing to export to.
func (s *ExportStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if !s.exporter.InCI() {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply appends every descriptor variable to the Actions env file and each
// PATH segment to the path file, so later workflow steps inherit the
// provisioned environment.
func (s *ExportStep) Apply(ctx pipeline.RunContext) error {
	envFile, ok := s.exporter.lookupEnv(EnvFileVar)
	if !ok || envFile == "" {
		return pipeline.NewPreconditionError(EnvFileVar + " not set inside CI").WithStepID(s.id)
	}
	pathFile, ok := s.exporter.lookupEnv(PathFileVar)
	if !ok || pathFile == "" {
		return pipeline.NewPreconditionError(PathFileVar + " not set inside CI").WithStepID(s.id)
	}

	env := ctx.Env()
	var envLines strings.Builder
	for _, name := range env.Variables() {
		if name == "PATH" {
			continue
		}
		value, _ := env.Value(name)
		envLines.WriteString(name + "=" + value + "\n")
	}
	if envLines.Len() > 0 {
		if err := s.exporter.fs.AppendFile(envFile, []byte(envLines.String()), 0o644); err != nil {
			return pipeline.NewApplyError(s.id.String(), err)
		}
	}

	if path, ok := env.Value("PATH"); ok {
		var pathLines strings.Builder
		for _, segment := range strings.Split(path, ":") {
			if segment != "" {
				pathLines.WriteString(segment + "\n")
			}
		}
		if err := s.exporter.fs.AppendFile(pathFile, []byte(pathLines.String()), 0o644); err != nil {
			return pipeline.NewApplyError(s.id.String(), err)
		}
	}
	return nil
}
