package utils

import "testing"

// Each type is exercised individually because Go generics do not support
// table-driven tests across different type parameters.
func TestPtr(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		result := Ptr(42)
		if result == nil || *result != 42 {
			t.Errorf("expected pointer to 42, got %v", result)
		}
	})

	t.Run("string", func(t *testing.T) {
		result := Ptr("hello")
		if result == nil || *result != "hello" {
			t.Errorf("expected pointer to %q, got %v", "hello", result)
		}
	})

	t.Run("float64", func(t *testing.T) {
		result := Ptr(0.7)
		if result == nil || *result != 0.7 {
			t.Errorf("expected pointer to 0.7, got %v", result)
		}
	})

	t.Run("distinct pointers for equal values", func(t *testing.T) {
		a, b := Ptr(1), Ptr(1)
		if a == b {
			t.Error("expected distinct allocations for separate calls")
		}
	})
}
