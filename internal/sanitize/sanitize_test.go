package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNameStripsDiacriticsAndUnsafeRunes(t *testing.T) {
	if got := Name("Café: Idea/Test", 50); got != "Cafe_Idea_Test" {
		t.Fatalf("Name = %q, want Cafe_Idea_Test", got)
	}
}

func TestNameTable(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"spaces become underscores", "mi gran idea", 50, "mi_gran_idea"},
		{"runs collapse", "a  //  b", 50, "a_b"},
		{"leading trailing trimmed", "  __hola__  ", 50, "hola"},
		{"hyphen kept", "app-delivery", 50, "app-delivery"},
		{"accented spanish", "Canción de Niños", 50, "Cancion_de_Ninos"},
		{"empty input", "", 50, FallbackName},
		{"all invalid", "¿¡!?", 50, FallbackName},
		{"reserved device name", "con", 50, "con_X"},
		{"reserved com port", "COM7", 50, "COM7_X"},
		{"not reserved when longer", "CONSOLE", 50, "CONSOLE"},
		{"truncation", strings.Repeat("a", 80), 50, strings.Repeat("a", 50)},
		{"default max on zero", strings.Repeat("b", 80), 0, strings.Repeat("b", DefaultMaxLength)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Name(tc.in, tc.max); got != tc.want {
				t.Fatalf("Name(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestNameOutputAlwaysSafe(t *testing.T) {
	inputs := []string{
		"normal",
		"../../etc/passwd",
		"ñandú über façade",
		"漢字とひらがな",
		"\x00\x01control",
		strings.Repeat("é", 300),
		"nul",
		"idea.final.",
	}
	for _, in := range inputs {
		got := Name(in, 50)
		if got == "" {
			t.Fatalf("Name(%q) returned empty", in)
		}
		if utf8.RuneCountInString(got) > 52 { // max plus reserved escape
			t.Fatalf("Name(%q) too long: %q", in, got)
		}
		for _, r := range got {
			safe := r == '_' || r == '-' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !safe {
				t.Fatalf("Name(%q) contains unsafe rune %q in %q", in, r, got)
			}
		}
		if _, reserved := reservedNames[strings.ToUpper(got)]; reserved {
			t.Fatalf("Name(%q) yielded bare reserved name %q", in, got)
		}
	}
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	// Diacritic stripping leaves plain ASCII here, but the truncation helper
	// itself must never split a multi-byte rune.
	if got := truncateRunes("日本語テキスト", 3); got != "日本語" {
		t.Fatalf("truncateRunes = %q", got)
	}
}
