package schema

import "testing"

func TestValidationErrorFormat(t *testing.T) {
	e := Errorf("per_image[2].severity", "unexpected %s", "number")
	if e.Error() != "per_image[2].severity: unexpected number" {
		t.Errorf("unexpected error text: %s", e.Error())
	}
}

func TestJoin(t *testing.T) {
	got := Join([]ValidationError{
		{Path: "a", Message: "required"},
		{Path: "b", Message: "invalid"},
	})
	if got != "a: required\nb: invalid" {
		t.Errorf("Join() = %q", got)
	}
	if Join(nil) != "" {
		t.Error("Join(nil) should be empty")
	}
}
