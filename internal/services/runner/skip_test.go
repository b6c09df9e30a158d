package runner

import (
	"errors"
	"fmt"
	"testing"
)

func TestSkip(t *testing.T) {
	err := Skip("not applicable")
	if !IsSkip(err) {
		t.Error("expected IsSkip true for Skip error")
	}
	if err.Error() != "not applicable" {
		t.Errorf("expected reason preserved, got %q", err.Error())
	}
}

func TestSkipf(t *testing.T) {
	err := Skipf("record %d out of range", 7)
	if !IsSkip(err) {
		t.Error("expected IsSkip true for Skipf error")
	}
	if err.Error() != "record 7 out of range" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestIsSkipWrapped(t *testing.T) {
	err := fmt.Errorf("while checking: %w", Skip("gated"))
	if !IsSkip(err) {
		t.Error("expected IsSkip to unwrap")
	}
}

func TestIsSkipOtherErrors(t *testing.T) {
	if IsSkip(errors.New("plain failure")) {
		t.Error("expected IsSkip false for unrelated error")
	}
	if IsSkip(nil) {
		t.Error("expected IsSkip false for nil")
	}
}
