package validation

import (
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	e := Errors{}
	if e.Err() != nil {
		t.Fatal("empty errors should be nil")
	}

	e.Add("question_q1", MsgRequired)
	e.Add(NonField, "The code you entered is not valid")
	err := e.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if got, want := err.Error(), "The code you entered is not valid; question_q1: This field is required."; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	wrapped := fmt.Errorf("purchase: %w", err)
	verr, ok := As(wrapped)
	if !ok {
		t.Fatal("As should unwrap validation errors")
	}
	if len(verr["question_q1"]) != 1 {
		t.Fatalf("unexpected errors %v", verr)
	}

	if _, ok := As(fmt.Errorf("boom")); ok {
		t.Fatal("plain error is not a validation error")
	}
}
