package report

import (
	"strings"
	"unicode"
)

// Filename returns the download name for a patient's report,
// Medical_Report_<name>.pdf. Whitespace runs become underscores and
// characters outside letters, digits, '_', '-' and '.' are dropped.
func Filename(name string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-', r == '.':
		default:
			continue
		}
		if space {
			b.WriteByte('_')
			space = false
		}
		b.WriteRune(r)
	}

	sanitized := strings.Trim(b.String(), ".")
	if sanitized == "" {
		sanitized = "Patient"
	}
	return "Medical_Report_" + sanitized + ".pdf"
}
