package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("book: %w", Conflict("appointment", "slot taken"))
	c, ok := AsConflict(err)
	if !ok || c.Message != "slot taken" {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, ok := AsValidation(err); ok {
		t.Fatalf("conflict misclassified as validation")
	}

	cause := errors.New("connection reset")
	serr := Storage("insert appointment", cause)
	if !errors.Is(serr, cause) {
		t.Fatalf("storage error should unwrap to cause")
	}

	v := Validation("customerName", "is required")
	if v.Error() != "customerName: is required" {
		t.Fatalf("unexpected message %q", v.Error())
	}
	if NotFound("business").Error() != "business not found" {
		t.Fatalf("unexpected not found message")
	}
}
