package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var monthNumbers = map[string]string{
	"january": "01", "jan": "01",
	"february": "02", "feb": "02",
	"march": "03", "mar": "03",
	"april": "04", "apr": "04",
	"may":  "05",
	"june": "06", "jun": "06",
	"july": "07", "jul": "07",
	"august": "08", "aug": "08",
	"september": "09", "sep": "09",
	"october": "10", "oct": "10",
	"november": "11", "nov": "11",
	"december": "12", "dec": "12",
}

var (
	reCanonicalDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reMonthDayYear  = regexp.MustCompile(`(?i)^([a-z]+)\s+(\d{1,2}),?\s+(\d{4})`)
	reDayMonthYear  = regexp.MustCompile(`(?i)^(\d{1,2})\s+([a-z]+)\s+(\d{4})`)
)

// NormalizeDate parses a date expression into the canonical "YYYY-MM-DD" form.
// Accepted shapes: already-canonical ISO, "November 12, 2025" and
// "12 November 2025" (month names or 3-letter abbreviations, any case).
// The day is only range-checked against 1-31; per-month maximums are not
// enforced, so "February 30" normalizes. That looseness is inherited behavior.
func NormalizeDate(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if reCanonicalDate.MatchString(text) {
		return text, true
	}

	if m := reMonthDayYear.FindStringSubmatch(text); m != nil {
		return buildISODate(m[3], m[1], m[2])
	}
	if m := reDayMonthYear.FindStringSubmatch(text); m != nil {
		return buildISODate(m[3], m[2], m[1])
	}

	return "", false
}

func buildISODate(year, monthName, day string) (string, bool) {
	month, ok := monthNumbers[strings.ToLower(monthName)]
	if !ok {
		return "", false
	}
	dayNum, err := strconv.Atoi(day)
	if err != nil || dayNum < 1 || dayNum > 31 {
		return "", false
	}
	return fmt.Sprintf("%s-%s-%02d", year, month, dayNum), true
}
