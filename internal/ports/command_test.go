package ports

import "testing"

func TestCommandResult_Success(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     bool
	}{
		{"zero exit code", 0, true},
		{"non-zero exit code", 1, false},
		{"negative exit code", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CommandResult{ExitCode: tt.exitCode}
			if got := r.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}
