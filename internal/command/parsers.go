package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clinicops/clinic-assistant/internal/schedule"
)

// UserError is an error whose text is meant for the patient verbatim. The
// executor returns it as the operation result instead of an error page.
type UserError string

func (e UserError) Error() string { return string(e) }

func userErrorf(format string, args ...any) UserError {
	return UserError(fmt.Sprintf(format, args...))
}

// AvailabilityRequest asks for open slots of one doctor, optionally on one day.
type AvailabilityRequest struct {
	Doctor string // canonical roster name
	Date   string // "" means today or later
}

// BookingRequest is the transient, parsed form of a book_appointment call.
// Time is kept in the raw form the model produced; the executor normalizes it
// during re-validation.
type BookingRequest struct {
	Doctor      string
	Date        string
	Time        string
	PatientName string
	Phone       string
}

// CancellationRequest is the parsed form of a cancel_appointment call. Date
// and Time are optional; both empty means "cancel every matching reservation
// for this patient with this doctor".
type CancellationRequest struct {
	Doctor      string
	PatientName string
	Date        string
	Time        string
}

// looksLikeDate reports whether a token has the two-dash shape of an ISO date.
func looksLikeDate(token string) bool {
	return strings.Count(token, "-") == 2
}

func parseAvailability(rawArgs string, roster []string) (AvailabilityRequest, error) {
	parts := strings.Fields(rawArgs)
	if len(parts) == 0 {
		return AvailabilityRequest{}, UserError("Please specify which doctor you want to check.")
	}

	fragment := strings.Join(parts, " ")
	date := ""
	if len(parts) > 1 && looksLikeDate(parts[len(parts)-1]) {
		fragment = strings.Join(parts[:len(parts)-1], " ")
		date = parts[len(parts)-1]
	}

	doctor, ok := schedule.ResolveDoctor(fragment, roster)
	if !ok {
		return AvailabilityRequest{}, userErrorf("I couldn't find a doctor matching '%s'. Please check the name and try again.", fragment)
	}
	return AvailabilityRequest{Doctor: doctor, Date: date}, nil
}

func parseBooking(rawArgs string, roster []string) (BookingRequest, error) {
	parts := strings.Fields(rawArgs)
	if len(parts) < 5 {
		return BookingRequest{}, UserError("To book an appointment, I need: doctor name, date, time, patient name, and phone number.")
	}

	dateIdx := -1
	for i, part := range parts {
		if looksLikeDate(part) {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		return BookingRequest{}, UserError("Please provide a valid date in YYYY-MM-DD format.")
	}

	fragment := strings.Join(parts[:dateIdx], " ")
	doctor, ok := schedule.ResolveDoctor(fragment, roster)
	if !ok {
		return BookingRequest{}, userErrorf("I couldn't find a doctor matching '%s'.", fragment)
	}

	timeIdx := dateIdx + 1
	if timeIdx >= len(parts) {
		return BookingRequest{}, UserError("Missing time information.")
	}
	timeRaw := parts[timeIdx]

	nameIdx := timeIdx + 1
	if nameIdx < len(parts) {
		if upper := strings.ToUpper(parts[nameIdx]); upper == "AM" || upper == "PM" {
			timeRaw += " " + parts[nameIdx]
			nameIdx++
		}
	}

	if nameIdx >= len(parts) {
		return BookingRequest{}, UserError("Missing patient name.")
	}
	remaining := parts[nameIdx:]
	if len(remaining) < 2 {
		return BookingRequest{}, UserError("Missing phone number.")
	}

	// The last token is the phone; everything before it is the patient name,
	// which may span several words.
	return BookingRequest{
		Doctor:      doctor,
		Date:        parts[dateIdx],
		Time:        timeRaw,
		PatientName: strings.Join(remaining[:len(remaining)-1], " "),
		Phone:       remaining[len(remaining)-1],
	}, nil
}

var reISODateAnywhere = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`)

// cancelMonthNames mirrors the month vocabulary the cancellation scan accepts.
var cancelMonthNames = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "oct": true, "nov": true, "dec": true,
}

func parseCancellation(rawArgs string, roster []string) (CancellationRequest, error) {
	parts := strings.Fields(rawArgs)
	if len(parts) < 2 {
		return CancellationRequest{}, UserError("To cancel an appointment, I need: doctor name and patient name.")
	}

	datePattern, timePattern := "", ""
	isoDate := false
	beforeParts := parts

	if loc := reISODateAnywhere.FindStringIndex(rawArgs); loc != nil {
		datePattern = rawArgs[loc[0]:loc[1]]
		isoDate = true
		beforeParts = strings.Fields(rawArgs[:loc[0]])
		timePattern = strings.TrimSpace(rawArgs[loc[1]:])
	} else {
		// Month-name scan: an optional day may precede the month and an
		// optional year may follow it; anything after the date span is a time
		// expression.
		for i, part := range parts {
			if !cancelMonthNames[strings.ToLower(strings.Trim(part, ","))] {
				continue
			}
			dateParts := []string{part}
			beforeEnd := i
			if i > 0 {
				if day, err := strconv.Atoi(strings.Trim(parts[i-1], ",")); err == nil && day >= 1 && day <= 31 {
					dateParts = append([]string{parts[i-1]}, dateParts...)
					beforeEnd = i - 1
				}
			}
			afterStart := i + 1
			if i+1 < len(parts) {
				if year := strings.Trim(parts[i+1], ","); len(year) == 4 {
					if _, err := strconv.Atoi(year); err == nil {
						dateParts = append(dateParts, parts[i+1])
						afterStart = i + 2
					}
				}
			}
			datePattern = strings.Join(dateParts, " ")
			beforeParts = parts[:beforeEnd]
			timePattern = strings.Join(parts[afterStart:], " ")
			break
		}
	}

	// Try doctor-name candidates of one, two, then three leading tokens; the
	// first that resolves wins and the rest of the span is the patient name.
	doctor, patientName := "", ""
	for count := 1; count <= 3 && count <= len(beforeParts); count++ {
		candidate := strings.Join(beforeParts[:count], " ")
		if resolved, ok := schedule.ResolveDoctor(candidate, roster); ok {
			doctor = resolved
			patientName = strings.Join(beforeParts[count:], " ")
			break
		}
	}
	if doctor == "" {
		return CancellationRequest{}, userErrorf("I couldn't find a doctor in '%s'. Please provide a valid doctor name.", rawArgs)
	}
	if patientName == "" {
		return CancellationRequest{}, UserError("Please provide a patient name to cancel.")
	}

	req := CancellationRequest{Doctor: doctor, PatientName: strings.TrimSpace(patientName)}
	switch {
	case isoDate:
		req.Date = datePattern
	case datePattern != "":
		if date, ok := schedule.NormalizeDate(datePattern); ok {
			req.Date = date
		}
	}
	if timePattern != "" {
		if t, ok := schedule.NormalizeTime(timePattern); ok {
			req.Time = t
		}
	}
	return req, nil
}

func parseSearch(rawArgs string) (string, error) {
	patientName := strings.TrimSpace(rawArgs)
	if patientName == "" {
		return "", UserError("Please provide a patient name to search.")
	}
	return patientName, nil
}
