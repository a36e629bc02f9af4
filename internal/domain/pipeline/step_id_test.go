package pipeline

import "testing"

func TestNewStepID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "simple", value: "rustup"},
		{name: "two segments", value: "native:build"},
		{name: "three segments", value: "conda:install:pkg-config"},
		{name: "dots and slashes", value: "pip:install:CQCL/guppylang.git"},
		{name: "empty", value: "", wantErr: true},
		{name: "leading colon", value: ":build", wantErr: true},
		{name: "trailing colon", value: "native:", wantErr: true},
		{name: "spaces", value: "native build", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewStepID(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewStepID(%q) error = nil, want error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStepID(%q) error = %v", tt.value, err)
			}
			if id.String() != tt.value {
				t.Errorf("String() = %q, want %q", id.String(), tt.value)
			}
		})
	}
}

func TestStepID_Area(t *testing.T) {
	if got := MustNewStepID("native:build").Area(); got != "native" {
		t.Errorf("Area() = %q, want %q", got, "native")
	}
	if got := MustNewStepID("rustup").Area(); got != "rustup" {
		t.Errorf("Area() = %q, want %q", got, "rustup")
	}
}

func TestStepID_Equals(t *testing.T) {
	a := MustNewStepID("uv:venv")
	b := MustNewStepID("uv:venv")
	c := MustNewStepID("uv:pyproject")

	if !a.Equals(b) {
		t.Error("identical IDs not equal")
	}
	if a.Equals(c) {
		t.Error("distinct IDs reported equal")
	}
}

func TestStepID_IsZero(t *testing.T) {
	var zero StepID
	if !zero.IsZero() {
		t.Error("zero value not reported zero")
	}
	if MustNewStepID("ci:export").IsZero() {
		t.Error("real ID reported zero")
	}
}
