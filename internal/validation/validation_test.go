package validation

import "testing"

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hola  ", 100); got != "hola" {
		t.Errorf("expected trimmed string, got %q", got)
	}
	if got := SanitizeString("abc\x00def", 100); got != "abcdef" {
		t.Errorf("expected null bytes stripped, got %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Errorf("expected truncation to 3 chars, got %q", got)
	}
}
