package errs

import "testing"

func TestSyntaxError_IncludesPositionAndMessage(t *testing.T) {
	err := &SyntaxError{Position: 12, Message: "unexpected token"}
	want := "syntax error at byte 12: unexpected token"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTypeError_OmitsContextWhenEmpty(t *testing.T) {
	err := &TypeError{Expected: "Int", Got: "String"}
	want := "type error: expected Int, got String"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTypeError_IncludesContextWhenSet(t *testing.T) {
	err := &TypeError{Expected: "Int", Got: "String", Context: "addition"}
	want := "type error in addition: expected Int, got String"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNotFound_IncludesKindAndID(t *testing.T) {
	err := &NotFound{Kind: "Index", ID: "by_email"}
	want := "Index not found: by_email"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorTypes_AreDistinguishableByAssertion(t *testing.T) {
	var err error = &ConstraintViolation{Message: "duplicate value"}
	if _, ok := err.(*NotFound); ok {
		t.Error("a ConstraintViolation should not assert as a NotFound")
	}
	cv, ok := err.(*ConstraintViolation)
	if !ok {
		t.Fatal("expected err to assert as *ConstraintViolation")
	}
	if cv.Error() != "constraint violation: duplicate value" {
		t.Errorf("Error() = %q", cv.Error())
	}
}
