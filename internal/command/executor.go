package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicops/clinic-assistant/internal/knowledge"
	"github.com/clinicops/clinic-assistant/internal/observability/metrics"
	"github.com/clinicops/clinic-assistant/internal/schedule"
	"github.com/clinicops/clinic-assistant/pkg/logging"
)

// AppointmentStore is the slice of the schedule store the executor needs.
type AppointmentStore interface {
	Doctors() []string
	QueryAvailable(ctx context.Context, doctor, date string, limit int) ([]schedule.Slot, error)
	QueryReservations(ctx context.Context, patientName, doctor, date string) ([]schedule.Slot, error)
	BookSlot(ctx context.Context, doctor, date, timeStr, patientName, phone string) (schedule.Slot, error)
	CancelSlot(ctx context.Context, doctor, patientName, date, timeStr string) ([]schedule.Slot, error)
}

// KnowledgeSearcher is an opaque ranked-text lookup.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, limit int, scoreThreshold float64) ([]knowledge.Hit, error)
}

const (
	availabilityLimit = 50
	revalidateLimit   = 100

	maxAlternativeSlots = 20
	maxAlternativeDates = 5
	maxAlternativeTimes = 10
)

// ExecutorConfig carries the executor's tunables and ambient collaborators.
type ExecutorConfig struct {
	RetrievalK     int
	ScoreThreshold float64
	Logger         *logging.Logger
	Metrics        *metrics.ChatMetrics
}

// Executor runs a recognized operation against the store and collaborators and
// renders the outcome as user-facing text. Nothing it returns is an error in
// the Go sense: every failure in the taxonomy becomes plain text for the
// conversation controller to phrase.
type Executor struct {
	store          AppointmentStore
	searcher       KnowledgeSearcher
	retrievalK     int
	scoreThreshold float64
	logger         *logging.Logger
	metrics        *metrics.ChatMetrics
}

func NewExecutor(store AppointmentStore, searcher KnowledgeSearcher, cfg ExecutorConfig) *Executor {
	if store == nil {
		panic("command: appointment store cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.RetrievalK <= 0 {
		cfg.RetrievalK = 5
	}
	return &Executor{
		store:          store,
		searcher:       searcher,
		retrievalK:     cfg.RetrievalK,
		scoreThreshold: cfg.ScoreThreshold,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}
}

// Execute dispatches one extracted call and returns the result text.
func (e *Executor) Execute(ctx context.Context, call Call) string {
	start := time.Now()
	text, outcome := e.execute(ctx, call)
	e.metrics.ObserveCommand(string(call.Op), outcome, time.Since(start).Seconds())
	e.logger.Info("command executed",
		"operation", string(call.Op),
		"outcome", outcome,
	)
	return text
}

func (e *Executor) execute(ctx context.Context, call Call) (string, string) {
	switch call.Op {
	case OpSearchKnowledge:
		return e.searchKnowledge(ctx, call.RawArgs)
	case OpGetDoctors:
		return e.getDoctors()
	case OpCheckAvailability:
		return e.checkAvailability(ctx, call.RawArgs)
	case OpBookAppointment:
		return e.bookAppointment(ctx, call.RawArgs)
	case OpCancelAppointment:
		return e.cancelAppointment(ctx, call.RawArgs)
	case OpSearchAppointments:
		return e.searchAppointments(ctx, call.RawArgs)
	default:
		return fmt.Sprintf("I don't know how to execute: %s", call.Op), "unknown_operation"
	}
}

func (e *Executor) searchKnowledge(ctx context.Context, rawArgs string) (string, string) {
	query := strings.TrimSpace(rawArgs)
	if query == "" {
		return "Please provide a search query.", "user_error"
	}
	if e.searcher == nil {
		return "The knowledge base is not available right now.", "error"
	}

	hits, err := e.searcher.Search(ctx, query, e.retrievalK, e.scoreThreshold)
	if err != nil {
		e.logger.Error("knowledge search failed", "error", err)
		return "I couldn't reach the knowledge base just now. Please try again in a moment.", "error"
	}
	if len(hits) == 0 {
		return fmt.Sprintf("I couldn't find information about '%s'. Please try asking about our doctors, services, or policies.", query), "empty"
	}

	var b strings.Builder
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Information %d: %s", i+1, hit.Text)
	}
	return b.String(), "success"
}

func (e *Executor) getDoctors() (string, string) {
	doctors := e.store.Doctors()
	if len(doctors) == 0 {
		return "I don't have access to our current doctor list right now.", "empty"
	}
	var b strings.Builder
	b.WriteString("Here are our available doctors:\n")
	for i, doctor := range doctors {
		fmt.Fprintf(&b, "\n%d. %s", i+1, doctor)
	}
	return b.String(), "success"
}

func (e *Executor) checkAvailability(ctx context.Context, rawArgs string) (string, string) {
	req, err := parseAvailability(rawArgs, e.store.Doctors())
	if err != nil {
		return userText(err), "user_error"
	}

	slots, err := e.store.QueryAvailable(ctx, req.Doctor, req.Date, availabilityLimit)
	if err != nil {
		e.logger.Error("availability query failed", "doctor", req.Doctor, "error", err)
		return "I couldn't read the schedule just now. Please try again in a moment.", "store_error"
	}
	if len(slots) == 0 {
		if req.Date != "" {
			return fmt.Sprintf("No available appointments for %s on %s.", req.Doctor, req.Date), "empty"
		}
		return fmt.Sprintf("No available appointments for %s.", req.Doctor), "empty"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available appointments for %s:\n", req.Doctor)
	for _, group := range groupSlotsByDate(slots, 0, 0) {
		fmt.Fprintf(&b, "\n%s:\n   Times: %s\n   Total slots: %d\n", group.date, strings.Join(group.times, ", "), len(group.times))
	}
	fmt.Fprintf(&b, "\nTotal available slots: %d", len(slots))
	return b.String(), "success"
}

func (e *Executor) bookAppointment(ctx context.Context, rawArgs string) (string, string) {
	req, err := parseBooking(rawArgs, e.store.Doctors())
	if err != nil {
		return userText(err), "user_error"
	}

	timeNorm, ok := schedule.NormalizeTime(req.Time)
	if !ok {
		return fmt.Sprintf("Invalid time format: '%s'. Please use format like '10:00 AM' or '02:30 PM'.", req.Time), "user_error"
	}

	// Re-validate right before committing: conversation context may reference
	// a slot that was taken in the meantime, and the model may echo the time
	// in a different format than the sheet holds.
	available, err := e.store.QueryAvailable(ctx, req.Doctor, req.Date, revalidateLimit)
	if err != nil {
		e.logger.Error("pre-booking availability check failed", "doctor", req.Doctor, "error", err)
		return "I couldn't read the schedule just now, so nothing was booked. Please try again.", "store_error"
	}

	nativeTime := ""
	for _, slot := range available {
		if n, ok := schedule.NormalizeTime(slot.Time); ok && n == timeNorm {
			nativeTime = slot.Time
			break
		}
	}
	if nativeTime == "" {
		return e.alternativesMessage(req, available), "conflict"
	}

	booked, err := e.store.BookSlot(ctx, req.Doctor, req.Date, nativeTime, req.PatientName, req.Phone)
	switch {
	case errors.Is(err, schedule.ErrSlotNotFound):
		// Lost the slot between re-validation and commit.
		return e.alternativesMessage(req, nil), "conflict"
	case errors.Is(err, schedule.ErrDoctorNotFound):
		return fmt.Sprintf("I couldn't find a doctor matching '%s'.", req.Doctor), "user_error"
	case err != nil:
		e.logger.Error("booking persist failed", "doctor", req.Doctor, "error", err)
		return "I couldn't save the booking, so nothing was changed. Please try again.", "store_error"
	}

	return fmt.Sprintf(
		"Appointment booked successfully!\n\nDoctor: %s\nDate: %s\nTime: %s\nPatient: %s\nPhone: %s",
		booked.Doctor, booked.Date, booked.Time, booked.PatientName, booked.Phone,
	), "success"
}

// alternativesMessage tells the patient the requested slot is gone and offers
// other openings on the requested date. available may be nil, in which case it
// is re-queried.
func (e *Executor) alternativesMessage(req BookingRequest, available []schedule.Slot) string {
	if available == nil {
		available, _ = e.store.QueryAvailable(context.Background(), req.Doctor, req.Date, revalidateLimit)
	}
	if len(available) == 0 {
		return fmt.Sprintf("I apologize, but %s has no available slots at this time. Please try another doctor or check back later.", req.Doctor)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I apologize, but %s isn't available on %s at %s. Here are alternative slots:\n", req.Doctor, req.Date, req.Time)
	for _, group := range groupSlotsByDate(available, maxAlternativeDates, maxAlternativeTimes) {
		fmt.Fprintf(&b, "\n%s:\n   %s\n", group.date, strings.Join(group.times, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *Executor) cancelAppointment(ctx context.Context, rawArgs string) (string, string) {
	req, err := parseCancellation(rawArgs, e.store.Doctors())
	if err != nil {
		return userText(err), "user_error"
	}

	cancelled, err := e.store.CancelSlot(ctx, req.Doctor, req.PatientName, req.Date, req.Time)
	switch {
	case errors.Is(err, schedule.ErrNoMatch):
		msg := fmt.Sprintf("No reservation found for %s with %s", req.PatientName, req.Doctor)
		if req.Date != "" {
			msg += " on " + req.Date
		}
		if req.Time != "" {
			msg += " at " + req.Time
		}
		return msg + ".", "no_match"
	case errors.Is(err, schedule.ErrDoctorNotFound):
		return fmt.Sprintf("I couldn't find a doctor matching '%s'.", req.Doctor), "user_error"
	case err != nil:
		e.logger.Error("cancellation persist failed", "doctor", req.Doctor, "error", err)
		return "I couldn't save the cancellation, so nothing was changed. Please try again.", "store_error"
	}

	if len(cancelled) == 1 {
		slot := cancelled[0]
		return fmt.Sprintf(
			"Appointment cancelled successfully!\n\nDoctor: %s\nDate: %s\nTime: %s\nPatient: %s",
			req.Doctor, slot.Date, slot.Time, req.PatientName,
		), "success"
	}
	return fmt.Sprintf("%d appointments cancelled for %s with %s.", len(cancelled), req.PatientName, req.Doctor), "success"
}

func (e *Executor) searchAppointments(ctx context.Context, rawArgs string) (string, string) {
	patientName, err := parseSearch(rawArgs)
	if err != nil {
		return userText(err), "user_error"
	}

	appointments, err := e.store.QueryReservations(ctx, patientName, "", "")
	if err != nil {
		e.logger.Error("reservation query failed", "error", err)
		return "I couldn't read the schedule just now. Please try again in a moment.", "store_error"
	}
	if len(appointments) == 0 {
		return fmt.Sprintf("I didn't find any appointments for %s.", patientName), "empty"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d appointment(s) for %s:\n", len(appointments), patientName)
	for _, appt := range appointments {
		fmt.Fprintf(&b, "\nDoctor: %s\nDate: %s at %s\nPhone: %s\n", appt.Doctor, appt.Date, appt.Time, appt.Phone)
	}
	return strings.TrimRight(b.String(), "\n"), "success"
}

// userText unwraps a UserError into its patient-facing text; anything else
// gets a generic apology so internals never leak into the chat.
func userText(err error) string {
	var ue UserError
	if errors.As(err, &ue) {
		return string(ue)
	}
	return "Sorry, I couldn't process that request."
}

type dateGroup struct {
	date  string
	times []string
}

// groupSlotsByDate buckets slots by date preserving the store's (date, time)
// ordering. maxDates/maxTimes of zero mean no truncation; otherwise the output
// is capped for alternative-slot listings.
func groupSlotsByDate(slots []schedule.Slot, maxDates, maxTimes int) []dateGroup {
	if maxDates > 0 && len(slots) > maxAlternativeSlots {
		slots = slots[:maxAlternativeSlots]
	}

	var groups []dateGroup
	index := make(map[string]int)
	for _, slot := range slots {
		i, seen := index[slot.Date]
		if !seen {
			if maxDates > 0 && len(groups) == maxDates {
				continue
			}
			index[slot.Date] = len(groups)
			groups = append(groups, dateGroup{date: slot.Date})
			i = len(groups) - 1
		}
		if maxTimes > 0 && len(groups[i].times) == maxTimes {
			continue
		}
		groups[i].times = append(groups[i].times, slot.Time)
	}
	return groups
}
