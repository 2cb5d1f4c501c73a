package utils

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Tuns":                     "tuns",
		"Tuns + Barbă":             "tuns-plus-barba",
		"  Aranjat barbă/mustață ": "aranjat-barba-mustata",
		"Kids' cut & wash":         "kids-cut-and-wash",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+40 722 123 456": "+40722123456",
		"0722-123-456":    "0722123456",
		" (0722) 123456 ": "0722123456",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}
