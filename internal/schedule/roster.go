package schedule

import "strings"

// ResolveDoctor maps a partial or fuzzy name fragment to one canonical roster
// entry. Matching is two-pass: exact (with or without the "Dr." title), then
// token overlap, where any whitespace token of the fragment appearing as a
// substring of a roster name counts as a match. The first roster entry that
// satisfies a pass wins; ties are not scored or disambiguated, so short common
// fragments can match an unintended doctor. That permissiveness is deliberate.
func ResolveDoctor(fragment string, roster []string) (string, bool) {
	search := strings.ToLower(strings.TrimSpace(fragment))
	search = stripTitle(search)
	if search == "" {
		return "", false
	}

	for _, doctor := range roster {
		lower := strings.ToLower(doctor)
		if lower == search || lower == "dr. "+search {
			return doctor, true
		}
	}

	tokens := strings.Fields(search)
	for _, doctor := range roster {
		lower := strings.ToLower(doctor)
		for _, token := range tokens {
			if strings.Contains(lower, token) {
				return doctor, true
			}
		}
	}

	return "", false
}

// stripTitle removes leading "dr." / "dr" tokens from an already-lowercased
// fragment.
func stripTitle(s string) string {
	for {
		switch {
		case strings.HasPrefix(s, "dr."):
			s = strings.TrimSpace(strings.TrimPrefix(s, "dr."))
		case strings.HasPrefix(s, "dr "):
			s = strings.TrimSpace(strings.TrimPrefix(s, "dr "))
		case s == "dr":
			return ""
		default:
			return s
		}
	}
}
