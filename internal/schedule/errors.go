package schedule

import "errors"

// Sentinel errors for the scheduling layer. All of them are recoverable from
// the caller's point of view and end up as plain user-facing text; store IO
// failures are wrapped separately and are fatal for the single request only.
var (
	ErrInvalidFormat  = errors.New("schedule: value could not be parsed")
	ErrDoctorNotFound = errors.New("schedule: doctor not found in roster")
	ErrSlotNotFound   = errors.New("schedule: no available slot for the requested date and time")
	ErrNoMatch        = errors.New("schedule: no reservation matched")
)
