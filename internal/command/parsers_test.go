package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parserRoster = []string{"Dr. Sarah Martinez", "Dr. Emily Roberts"}

func TestParseAvailability(t *testing.T) {
	req, err := parseAvailability("sarah", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Martinez", req.Doctor)
	assert.Empty(t, req.Date)

	req, err = parseAvailability("dr sarah martinez 2025-11-13", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Martinez", req.Doctor)
	assert.Equal(t, "2025-11-13", req.Date)
}

func TestParseAvailabilityErrors(t *testing.T) {
	_, err := parseAvailability("   ", parserRoster)
	assert.EqualError(t, err, "Please specify which doctor you want to check.")

	_, err = parseAvailability("house 2025-11-13", parserRoster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't find a doctor matching 'house'")
}

func TestParseBooking(t *testing.T) {
	req, err := parseBooking("sarah 2025-11-13 10:00 AM Shady Abdelaziz 01067110557", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Martinez", req.Doctor)
	assert.Equal(t, "2025-11-13", req.Date)
	assert.Equal(t, "10:00 AM", req.Time, "trailing AM token is folded into the time")
	assert.Equal(t, "Shady Abdelaziz", req.PatientName)
	assert.Equal(t, "01067110557", req.Phone)
}

func TestParseBookingSingleWordName(t *testing.T) {
	req, err := parseBooking("emily 2025-11-20 13:00 Mona 0100000000", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Emily Roberts", req.Doctor)
	assert.Equal(t, "13:00", req.Time)
	assert.Equal(t, "Mona", req.PatientName)
	assert.Equal(t, "0100000000", req.Phone)
}

func TestParseBookingThreeWordName(t *testing.T) {
	req, err := parseBooking("sarah 2025-11-13 10:00 AM Omar El Sayed 0111223344", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Omar El Sayed", req.PatientName)
	assert.Equal(t, "0111223344", req.Phone)
}

func TestParseBookingErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "too few tokens",
			raw:  "sarah 2025-11-13 10:00",
			want: "To book an appointment, I need: doctor name, date, time, patient name, and phone number.",
		},
		{
			name: "no date",
			raw:  "sarah tomorrow morning Shady Abdelaziz 01067110557",
			want: "Please provide a valid date in YYYY-MM-DD format.",
		},
		{
			name: "unknown doctor",
			raw:  "house wilson 2025-11-13 10:00 AM Shady 0106",
			want: "I couldn't find a doctor matching 'house wilson'.",
		},
		{
			name: "date last means no time",
			raw:  "sarah one two three 2025-11-13",
			want: "Missing time information.",
		},
		{
			name: "no phone after name",
			raw:  "sarah martinez x 2025-11-13 10:00 Shady",
			want: "Missing phone number.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseBooking(tt.raw, parserRoster)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestParseCancellationISODate(t *testing.T) {
	req, err := parseCancellation("sarah Shady Abdelaziz 2025-11-13 10:00", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Martinez", req.Doctor)
	assert.Equal(t, "Shady Abdelaziz", req.PatientName)
	assert.Equal(t, "2025-11-13", req.Date)
	assert.Equal(t, "10:00", req.Time)
}

func TestParseCancellationMonthName(t *testing.T) {
	req, err := parseCancellation("sarah Shady Abdelaziz 13 November 2025 10 AM", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Martinez", req.Doctor)
	assert.Equal(t, "Shady Abdelaziz", req.PatientName)
	assert.Equal(t, "2025-11-13", req.Date)
	assert.Equal(t, "10:00", req.Time)
}

func TestParseCancellationNoDate(t *testing.T) {
	req, err := parseCancellation("sarah Shady Abdelaziz", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Martinez", req.Doctor)
	assert.Equal(t, "Shady Abdelaziz", req.PatientName)
	assert.Empty(t, req.Date, "missing date means cancel all matching")
	assert.Empty(t, req.Time)
}

func TestParseCancellationSurnameFragment(t *testing.T) {
	req, err := parseCancellation("martinez Shady Abdelaziz 2025-11-13", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Martinez", req.Doctor)
	assert.Equal(t, "Shady Abdelaziz", req.PatientName)
}

// Doctor candidates are tried shortest-first, so with "dr sarah martinez" the
// two-token candidate "dr sarah" already resolves and the leftover "martinez"
// is folded into the patient name. Inherited quirk, documented on purpose.
func TestParseCancellationGreedyShortDoctorCandidate(t *testing.T) {
	req, err := parseCancellation("dr sarah martinez Shady Abdelaziz 2025-11-13", parserRoster)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Martinez", req.Doctor)
	assert.Equal(t, "martinez Shady Abdelaziz", req.PatientName)
}

func TestParseCancellationErrors(t *testing.T) {
	_, err := parseCancellation("sarah", parserRoster)
	assert.EqualError(t, err, "To cancel an appointment, I need: doctor name and patient name.")

	_, err = parseCancellation("house wilson 2025-11-13", parserRoster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't find a doctor in")

	_, err = parseCancellation("dr sarah", parserRoster)
	assert.EqualError(t, err, "Please provide a patient name to cancel.")
}

func TestParseSearch(t *testing.T) {
	name, err := parseSearch("  Shady Abdelaziz  ")
	require.NoError(t, err)
	assert.Equal(t, "Shady Abdelaziz", name)

	_, err = parseSearch("   ")
	assert.EqualError(t, err, "Please provide a patient name to search.")
}
