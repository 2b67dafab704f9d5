package sanitizer

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Dana Levi  ", "Dana Levi"},
		{"Dana\t\tLevi", "Dana Levi"},
		{"Dana\x00Levi", "DanaLevi"},
		{"Dana   \n  Levi", "Dana Levi"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeNamePreservesCase(t *testing.T) {
	if got := SanitizeName("McAllister"); got != "McAllister" {
		t.Errorf("display names must keep their casing, got %q", got)
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := SanitizeEmail("  Dana@Example.COM "); got != "dana@example.com" {
		t.Errorf("SanitizeEmail = %q", got)
	}
}

func TestSanitizeNotesKeepsInnerNewlineCollapsedOut(t *testing.T) {
	if got := SanitizeNotes("  line one\x1b[31m  "); got != "line one[31m" {
		t.Errorf("SanitizeNotes = %q", got)
	}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+972501234567", "+972501234567"},
		{"  +972501234567  ", "+972501234567"},
		{"", ""},
		// Not E.164 shaped: passed through for the validator to reject.
		{"0501234567", "0501234567"},
		{"phone", "phone"},
	}
	for _, tt := range tests {
		if got := SanitizePhone(tt.in); got != tt.want {
			t.Errorf("SanitizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
