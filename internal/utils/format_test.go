package utils

import "testing"

func TestNormalizePlate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"abc-1234", "ABC1234", true},
		{" ABC1234 ", "ABC1234", true},
		{"BRA2E19", "BRA2E19", true}, // Mercosul pattern
		{"abc123", "ABC123", false},  // too short
		{"abc12345", "ABC12345", false},
		{"ab!1234", "AB!1234", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizePlate(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("NormalizePlate(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestFormatPlate(t *testing.T) {
	if got := FormatPlate("ABC1234"); got != "ABC-1234" {
		t.Fatalf("got %q", got)
	}
	// Leave anything unexpected untouched.
	if got := FormatPlate("SHORT"); got != "SHORT" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatTicketNumber(t *testing.T) {
	if got := FormatTicketNumber(7); got != "TCK-000007" {
		t.Fatalf("got %q", got)
	}
	if got := FormatTicketNumber(1234567); got != "TCK-1234567" {
		t.Fatalf("got %q", got)
	}
}
