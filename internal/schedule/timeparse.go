package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Time expressions accepted from model output, in priority order. The first
// shape that matches wins; anything else is rejected.
var (
	reCanonicalTime = regexp.MustCompile(`^\d{2}:\d{2}$`)
	reClockMeridiem = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AP]M)$`)
	reHourMeridiem  = regexp.MustCompile(`^(\d{1,2})\s*([AP]M)$`)
	reBareHour      = regexp.MustCompile(`^(\d{1,2})$`)
)

// NormalizeTime parses a time expression into the canonical 24-hour "HH:MM"
// form used for comparison and storage. The second return value reports whether
// the input matched one of the accepted shapes. Already-canonical input passes
// through unchanged, so the function is idempotent on its own output.
func NormalizeTime(text string) (string, bool) {
	text = strings.ToUpper(strings.TrimSpace(text))

	if reCanonicalTime.MatchString(text) {
		return text, true
	}

	if m := reClockMeridiem.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s", meridiemHour(hour, m[3]), m[2]), true
	}

	if m := reHourMeridiem.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:00", meridiemHour(hour, m[2])), true
	}

	if m := reBareHour.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour <= 23 {
			return fmt.Sprintf("%02d:00", hour), true
		}
	}

	return "", false
}

// meridiemHour converts a 12-hour clock hour to 24-hour form.
// 12 AM is midnight and 12 PM is noon.
func meridiemHour(hour int, meridiem string) int {
	if meridiem == "PM" && hour != 12 {
		return hour + 12
	}
	if meridiem == "AM" && hour == 12 {
		return 0
	}
	return hour
}
