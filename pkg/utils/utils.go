package utils

import "fmt"

// Truncate cuts s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// RecoverError converts a recovered panic value into an error.
func RecoverError(r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}

func ToPointer[T any](v T) *T {
	return &v
}
