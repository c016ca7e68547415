// Package schedule owns the appointment workbook: the doctor roster, slot
// queries and the booking/cancellation state machine. The backing store is an
// xlsx workbook with one sheet per doctor (columns Date, Time, PatientName,
// Phone, Status) plus a read-only Patients sheet.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicops/clinic-assistant/pkg/logging"
)

const (
	StatusAvailable = "Available"
	StatusReserved  = "Reserved"

	// EmptyMarker fills PatientName and Phone on rows that are not reserved.
	EmptyMarker = "-"

	patientsSheet = "Patients"
	isoDate       = "2006-01-02"
)

// Slot is one bookable (doctor, date, time) row with a binary status.
// Status is Reserved iff PatientName and Phone hold real values; Available
// rows carry the empty marker in both.
type Slot struct {
	Doctor      string
	Date        string
	Time        string
	PatientName string
	Phone       string
	Status      string
}

// Patient is a row from the Patients sheet. The sheet sits outside the write
// path and is only consulted for lookups by full name.
type Patient struct {
	ID          string
	FullName    string
	DateOfBirth string
	Gender      string
	Phone       string
	Address     string
	Doctor      string
}

// Store is the single source of truth for all slot data. Every mutation loads
// the doctor's sheet, applies the change in memory and persists the workbook
// synchronously, all inside one critical section; reads take the same guard so
// they never interleave with a persist.
type Store struct {
	path   string
	roster []string
	logger *logging.Logger
	tracer trace.Tracer

	mu  sync.RWMutex
	now func() time.Time
}

// NewStore opens the workbook once to learn the roster. Sheets are doctors,
// in workbook order, except the Patients sheet.
func NewStore(path string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Default()
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("schedule: open workbook %s: %w", path, err)
	}
	defer wb.Close()

	var roster []string
	for _, sheet := range wb.GetSheetList() {
		if sheet != patientsSheet {
			roster = append(roster, sheet)
		}
	}

	return &Store{
		path:   path,
		roster: roster,
		logger: logger,
		tracer: otel.Tracer("clinic.internal.schedule"),
		now:    time.Now,
	}, nil
}

// Doctors returns the roster in load order.
func (s *Store) Doctors() []string {
	out := make([]string, len(s.roster))
	copy(out, s.roster)
	return out
}

func (s *Store) hasDoctor(doctor string) bool {
	for _, d := range s.roster {
		if d == doctor {
			return true
		}
	}
	return false
}

// BookSlot reserves the (date, time) row for the doctor. The row must exist
// and be Available; a Reserved row is never overwritten. The workbook is
// persisted before the call returns. On a persist failure no state change is
// asserted.
func (s *Store) BookSlot(ctx context.Context, doctor, date, timeStr, patientName, phone string) (Slot, error) {
	_, span := s.tracer.Start(ctx, "schedule.book_slot")
	defer span.End()

	if !s.hasDoctor(doctor) {
		return Slot{}, ErrDoctorNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := excelize.OpenFile(s.path)
	if err != nil {
		span.RecordError(err)
		return Slot{}, fmt.Errorf("schedule: load workbook: %w", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(doctor)
	if err != nil {
		span.RecordError(err)
		return Slot{}, fmt.Errorf("schedule: read sheet %s: %w", doctor, err)
	}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		slot := rowToSlot(doctor, row)
		if slot.Date != date || slot.Status != StatusAvailable || !timesEqual(slot.Time, timeStr) {
			continue
		}

		line := i + 1
		wb.SetCellValue(doctor, fmt.Sprintf("C%d", line), patientName)
		wb.SetCellValue(doctor, fmt.Sprintf("D%d", line), phone)
		wb.SetCellValue(doctor, fmt.Sprintf("E%d", line), StatusReserved)

		if err := wb.Save(); err != nil {
			span.RecordError(err)
			return Slot{}, fmt.Errorf("schedule: persist booking: %w", err)
		}

		s.logger.Info("slot booked",
			"doctor", doctor,
			"date", slot.Date,
			"time", slot.Time,
		)
		slot.PatientName = patientName
		slot.Phone = phone
		slot.Status = StatusReserved
		return slot, nil
	}

	return Slot{}, ErrSlotNotFound
}

// CancelSlot resets every Reserved row for the doctor whose patient name
// matches exactly, optionally narrowed by date and time (empty string means no
// filter). All matching rows are reset in memory first and the workbook is
// persisted exactly once, so a persist failure never leaves a partial batch.
// Returns the cancelled rows; ErrNoMatch if nothing matched.
func (s *Store) CancelSlot(ctx context.Context, doctor, patientName, date, timeStr string) ([]Slot, error) {
	_, span := s.tracer.Start(ctx, "schedule.cancel_slot")
	defer span.End()

	if !s.hasDoctor(doctor) {
		return nil, ErrDoctorNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := excelize.OpenFile(s.path)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("schedule: load workbook: %w", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(doctor)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("schedule: read sheet %s: %w", doctor, err)
	}

	var cancelled []Slot
	for i, row := range rows {
		if i == 0 {
			continue
		}
		slot := rowToSlot(doctor, row)
		if slot.Status != StatusReserved || slot.PatientName != patientName {
			continue
		}
		if date != "" && slot.Date != date {
			continue
		}
		if timeStr != "" && !timesEqual(slot.Time, timeStr) {
			continue
		}

		line := i + 1
		wb.SetCellValue(doctor, fmt.Sprintf("C%d", line), EmptyMarker)
		wb.SetCellValue(doctor, fmt.Sprintf("D%d", line), EmptyMarker)
		wb.SetCellValue(doctor, fmt.Sprintf("E%d", line), StatusAvailable)
		cancelled = append(cancelled, slot)
	}

	if len(cancelled) == 0 {
		return nil, ErrNoMatch
	}

	if err := wb.Save(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("schedule: persist cancellation: %w", err)
	}

	s.logger.Info("reservations cancelled",
		"doctor", doctor,
		"count", len(cancelled),
	)
	return cancelled, nil
}

// QueryAvailable returns Available rows for the doctor, restricted to the
// given date when set, otherwise to today or later, sorted by (date, time)
// ascending and truncated to limit.
func (s *Store) QueryAvailable(ctx context.Context, doctor, date string, limit int) ([]Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasDoctor(doctor) {
		return nil, ErrDoctorNotFound
	}

	wb, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("schedule: load workbook: %w", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(doctor)
	if err != nil {
		return nil, fmt.Errorf("schedule: read sheet %s: %w", doctor, err)
	}

	today := s.now().Format(isoDate)
	var slots []Slot
	for i, row := range rows {
		if i == 0 {
			continue
		}
		slot := rowToSlot(doctor, row)
		if slot.Status != StatusAvailable {
			continue
		}
		if date != "" {
			if slot.Date != date {
				continue
			}
		} else if slot.Date < today {
			continue
		}
		slots = append(slots, slot)
	}

	sort.SliceStable(slots, func(a, b int) bool {
		if slots[a].Date != slots[b].Date {
			return slots[a].Date < slots[b].Date
		}
		return sortableTime(slots[a].Time) < sortableTime(slots[b].Time)
	})

	if limit > 0 && len(slots) > limit {
		slots = slots[:limit]
	}
	return slots, nil
}

// QueryReservations returns Reserved rows across one or all doctors. All
// filters are optional; empty string means no filter on that dimension.
func (s *Store) QueryReservations(ctx context.Context, patientName, doctor, date string) ([]Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sheets := s.roster
	if doctor != "" && s.hasDoctor(doctor) {
		sheets = []string{doctor}
	}

	wb, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("schedule: load workbook: %w", err)
	}
	defer wb.Close()

	var results []Slot
	for _, sheet := range sheets {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("schedule: read sheet %s: %w", sheet, err)
		}
		for i, row := range rows {
			if i == 0 {
				continue
			}
			slot := rowToSlot(sheet, row)
			if slot.Status != StatusReserved {
				continue
			}
			if patientName != "" && slot.PatientName != patientName {
				continue
			}
			if date != "" && slot.Date != date {
				continue
			}
			results = append(results, slot)
		}
	}
	return results, nil
}

// PatientInfo looks a patient up by full name in the Patients sheet.
func (s *Store) PatientInfo(ctx context.Context, fullName string) (Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wb, err := excelize.OpenFile(s.path)
	if err != nil {
		return Patient{}, fmt.Errorf("schedule: load workbook: %w", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(patientsSheet)
	if err != nil {
		return Patient{}, fmt.Errorf("schedule: read sheet %s: %w", patientsSheet, err)
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if cell(row, 1) != fullName {
			continue
		}
		return Patient{
			ID:          cell(row, 0),
			FullName:    cell(row, 1),
			DateOfBirth: cell(row, 2),
			Gender:      cell(row, 3),
			Phone:       cell(row, 4),
			Address:     cell(row, 5),
			Doctor:      cell(row, 6),
		}, nil
	}
	return Patient{}, ErrNoMatch
}

func rowToSlot(doctor string, row []string) Slot {
	return Slot{
		Doctor:      doctor,
		Date:        cell(row, 0),
		Time:        cell(row, 1),
		PatientName: cell(row, 2),
		Phone:       cell(row, 3),
		Status:      cell(row, 4),
	}
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// timesEqual compares two time expressions on their canonical 24-hour form,
// so a "10:00 AM" row matches a "10:00" request. Unparsable values only match
// verbatim.
func timesEqual(a, b string) bool {
	if a == b {
		return true
	}
	na, okA := NormalizeTime(a)
	nb, okB := NormalizeTime(b)
	return okA && okB && na == nb
}

// sortableTime keys a store-native time string for ordering. Unparsable
// values sort after parsable ones, verbatim.
func sortableTime(t string) string {
	if n, ok := NormalizeTime(t); ok {
		return n
	}
	return "~" + t
}
