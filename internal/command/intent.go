// Package command turns loosely-structured model output into validated backend
// operations and executes them against the appointment store.
package command

import (
	"regexp"
	"strings"
)

// Operation is one of the six recognized backend operations.
type Operation string

const (
	OpSearchKnowledge    Operation = "search_knowledge"
	OpGetDoctors         Operation = "get_doctors"
	OpCheckAvailability  Operation = "check_availability"
	OpBookAppointment    Operation = "book_appointment"
	OpCancelAppointment  Operation = "cancel_appointment"
	OpSearchAppointments Operation = "search_appointments"
)

// Call is a recognized operation with its raw argument string, still
// unparsed and unvalidated.
type Call struct {
	Op      Operation
	RawArgs string
}

// dialect is one accepted phrasing of an operation. Models drift between tag
// shapes, so each operation carries an ordered list of dialects; the first one
// that matches anywhere in the text wins.
type dialect struct {
	op      Operation
	pattern *regexp.Regexp
	extract func(m []string) string
}

func firstGroup(m []string) string {
	if len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func noArgs([]string) string { return "" }

// doctorAndDate joins the doctor and optional date captures into the
// whitespace-separated raw-args form the availability parser expects.
func doctorAndDate(m []string) string {
	doctor, date := "", ""
	if len(m) > 1 {
		doctor = strings.TrimSpace(m[1])
	}
	if len(m) > 2 {
		date = strings.TrimSpace(m[2])
	}
	return strings.TrimSpace(doctor + " " + date)
}

// Tier 1: tag-delimited call syntax. Case-insensitive, spanning lines.
var taggedDialects = []dialect{
	{OpSearchKnowledge, regexp.MustCompile(`(?is)<search_knowledge>.*?<query>(.*?)</query>.*?</search_knowledge>`), firstGroup},
	{OpSearchKnowledge, regexp.MustCompile(`(?is)<search_knowledge>(.*?)</search_knowledge>`), firstGroup},
	{OpGetDoctors, regexp.MustCompile(`(?is)<get_doctors\s*/?>`), noArgs},
	{OpGetDoctors, regexp.MustCompile(`(?is)<get_doctors>(.*?)</get_doctors>`), noArgs},
	{OpCheckAvailability, regexp.MustCompile(`(?is)<check_availability>.*?doctor_name:\s*([^<\n]+).*?</check_availability>`), firstGroup},
	{OpCheckAvailability, regexp.MustCompile(`(?is)<check_availability>.*?<doctor_name>(.*?)</doctor_name>(?:.*?<date>(.*?)</date>)?.*?</check_availability>`), doctorAndDate},
	{OpCheckAvailability, regexp.MustCompile(`(?is)<check_availability>.*?<doctor>(.*?)</doctor>(?:.*?<date>(.*?)</date>)?.*?</check_availability>`), doctorAndDate},
	{OpCheckAvailability, regexp.MustCompile(`(?is)<check_availability>(.*?)</check_availability>`), firstGroup},
	{OpBookAppointment, regexp.MustCompile(`(?is)<book_appointment>(.*?)</book_appointment>`), firstGroup},
	{OpCancelAppointment, regexp.MustCompile(`(?is)<cancel_appointment>(.*?)</cancel_appointment>`), firstGroup},
	{OpSearchAppointments, regexp.MustCompile(`(?is)<search_appointments>.*?<patient_name>(.*?)</patient_name>.*?</search_appointments>`), firstGroup},
	{OpSearchAppointments, regexp.MustCompile(`(?is)<search_appointments>(.*?)</search_appointments>`), firstGroup},
}

// Tier 2: the "operation: rest of line" form the system prompt asks for.
var simpleDialects = []dialect{
	{OpSearchKnowledge, regexp.MustCompile(`(?im)search_knowledge:\s*(.+?)(?:\n|$)`), firstGroup},
	{OpGetDoctors, regexp.MustCompile(`(?im)get_doctors\s*(?:\n|$)`), noArgs},
	{OpCheckAvailability, regexp.MustCompile(`(?im)check_availability:\s*(.+?)(?:\n|$)`), firstGroup},
	{OpBookAppointment, regexp.MustCompile(`(?im)book_appointment:\s*(.+?)(?:\n|$)`), firstGroup},
	{OpCancelAppointment, regexp.MustCompile(`(?im)cancel_appointment:\s*(.+?)(?:\n|$)`), firstGroup},
	{OpSearchAppointments, regexp.MustCompile(`(?im)search_appointments:\s*(.+?)(?:\n|$)`), firstGroup},
}

// Extract scans free text for one operation signature. Tagged dialects are
// tried before the simple form, in fixed per-operation order; only the first
// match is returned even if the text mentions several operations. A false
// result means the text is a plain conversational reply, not a command.
func Extract(text string) (Call, bool) {
	for _, d := range taggedDialects {
		if m := d.pattern.FindStringSubmatch(text); m != nil {
			return Call{Op: d.op, RawArgs: d.extract(m)}, true
		}
	}
	for _, d := range simpleDialects {
		if m := d.pattern.FindStringSubmatch(text); m != nil {
			return Call{Op: d.op, RawArgs: d.extract(m)}, true
		}
	}
	return Call{}, false
}
