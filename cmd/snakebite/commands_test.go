package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation failure", &exitErr{code: exitValidationFailed, err: errors.New("3 files failed")}, 1},
		{"io failure", &exitErr{code: exitIO, err: errors.New("no such directory")}, 2},
		{"wrapped exitErr", fmt.Errorf("validate: %w", &exitErr{code: exitIO, err: errors.New("boom")}), 2},
		{"plain error", errors.New("something else"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitErrUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := &exitErr{code: exitIO, err: inner}

	if err.Error() != "root cause" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to reach the wrapped error")
	}
}
