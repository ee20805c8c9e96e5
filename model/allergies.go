package model

import "strings"

// ParseAllergies turns the comma separated edit field into an allergy list.
// Entries are trimmed and empty entries are dropped; duplicates are kept.
func ParseAllergies(text string) []string {
	parts := strings.Split(text, ",")
	allergies := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			allergies = append(allergies, trimmed)
		}
	}
	return allergies
}

// JoinAllergies is the inverse of ParseAllergies for entries without commas.
func JoinAllergies(allergies []string) string {
	return strings.Join(allergies, ", ")
}
