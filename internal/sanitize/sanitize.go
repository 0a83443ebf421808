package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength is the folder name length cap applied when callers pass a
// non-positive max.
const DefaultMaxLength = 50

// FallbackName is returned when the input has no usable characters at all.
const FallbackName = "Idea"

// Windows device names a bare folder name must never equal.
var reservedNames = func() map[string]struct{} {
	names := []string{"CON", "PRN", "AUX", "NUL"}
	for i := 1; i <= 9; i++ {
		names = append(names, "COM"+string(rune('0'+i)), "LPT"+string(rune('0'+i)))
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}()

// stripDiacritics decomposes to NFD, drops combining marks, and recomposes.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Name converts raw text into a filesystem-safe folder name: diacritics are
// reduced to base Latin letters, anything outside [A-Za-z0-9_-] becomes an
// underscore, runs of underscores collapse, and the result is truncated to
// maxLength runes. Reserved device names are escaped with an _X suffix.
// Empty or fully invalid input maps to FallbackName; Name never fails.
func Name(raw string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	base, _, err := transform.String(stripDiacritics, raw)
	if err != nil {
		base = raw
	}

	var b strings.Builder
	b.Grow(len(base))
	lastUnderscore := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	name := strings.Trim(b.String(), "_")
	name = truncateRunes(name, maxLength)
	name = strings.Trim(name, "_")

	if name == "" {
		return FallbackName
	}
	if _, reserved := reservedNames[strings.ToUpper(name)]; reserved {
		name += "_X"
	}
	return name
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
