package util

import "testing"

func TestPtrDeref(t *testing.T) {
	p := Ptr(42)
	if Deref(p) != 42 {
		t.Errorf("Deref(Ptr(42)) = %d", Deref(p))
	}
	*p = 7
	if Deref(p) != 7 {
		t.Errorf("Deref after write = %d", Deref(p))
	}

	var nilInt *int
	if got := Deref(nilInt); got != 0 {
		t.Errorf("Deref(nil) = %d, want 0", got)
	}
	var nilBool *bool
	if Deref(nilBool) {
		t.Error("Deref(nil bool) = true")
	}
	if !Deref(Ptr(true)) {
		t.Error("Deref(Ptr(true)) = false")
	}
}

func TestDefault(t *testing.T) {
	s := ""
	Default(&s, "10s")
	if s != "10s" {
		t.Errorf("empty string not defaulted: %q", s)
	}
	Default(&s, "1m")
	if s != "10s" {
		t.Errorf("set value overwritten: %q", s)
	}

	n := 0
	Default(&n, -1)
	if n != -1 {
		t.Errorf("zero int not defaulted: %d", n)
	}
}
