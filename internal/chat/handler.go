// Package chat exposes the conversation service and patient lookups over HTTP.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicops/clinic-assistant/internal/conversation"
	"github.com/clinicops/clinic-assistant/internal/schedule"
	"github.com/clinicops/clinic-assistant/pkg/logging"
)

const sessionCookie = "session_id"

// Conversations is the slice of the conversation service the handler uses.
type Conversations interface {
	Respond(ctx context.Context, sessionID, userMessage string) string
	History(ctx context.Context, sessionID string) ([]conversation.ChatMessage, error)
	Reset(ctx context.Context, sessionID string) error
}

// PatientDirectory resolves a patient record by full name.
type PatientDirectory interface {
	PatientInfo(ctx context.Context, fullName string) (schedule.Patient, error)
}

// Handler wires HTTP requests to the conversation service and patient lookup.
type Handler struct {
	conversations Conversations
	patients      PatientDirectory
	clinic        conversation.ClinicInfo
	logger        *logging.Logger
}

func NewHandler(conversations Conversations, patients PatientDirectory, clinic conversation.ClinicInfo, logger *logging.Logger) *Handler {
	if conversations == nil {
		panic("chat: conversation service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		conversations: conversations,
		patients:      patients,
		clinic:        clinic,
		logger:        logger,
	}
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// Message handles POST /api/chat.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}

	sessionID := h.sessionID(w, r)
	reply := h.conversations.Respond(r.Context(), sessionID, req.Message)
	h.writeJSON(w, http.StatusOK, messageResponse{
		Response:  reply,
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type historyResponse struct {
	SessionID string                     `json:"session_id"`
	History   []conversation.ChatMessage `json:"history"`
}

// History handles GET /api/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	history, err := h.conversations.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load history", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []conversation.ChatMessage{}
	}
	h.writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, History: history})
}

// Reset handles POST /api/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	if err := h.conversations.Reset(r.Context(), sessionID); err != nil {
		h.logger.Error("failed to reset session", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to reset session", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "session_id": sessionID})
}

type infoResponse struct {
	CenterName string    `json:"center_name"`
	Phone      string    `json:"phone"`
	PTPhone    string    `json:"pt_phone"`
	PTEmail    string    `json:"pt_email"`
	Location   string    `json:"location"`
	Hours      infoHours `json:"hours"`
}

type infoHours struct {
	Weekday  string `json:"weekday"`
	Saturday string `json:"saturday"`
	Sunday   string `json:"sunday"`
}

// Info handles GET /api/info with the clinic's static metadata.
func (h *Handler) Info(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, infoResponse{
		CenterName: h.clinic.CenterName,
		Phone:      h.clinic.CenterPhone,
		PTPhone:    h.clinic.TherapyPhone,
		PTEmail:    h.clinic.TherapyEmail,
		Location:   h.clinic.CenterLocation,
		Hours: infoHours{
			Weekday:  h.clinic.WeekdayHours,
			Saturday: h.clinic.SaturdayHours,
			Sunday:   h.clinic.SundayHours,
		},
	})
}

type patientResponse struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Doctor      string `json:"doctor,omitempty"`
}

// Patient handles GET /api/patients/{name}.
func (h *Handler) Patient(w http.ResponseWriter, r *http.Request) {
	if h.patients == nil {
		http.Error(w, "Patient lookup is not available", http.StatusServiceUnavailable)
		return
	}
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		http.Error(w, "Patient name is required", http.StatusBadRequest)
		return
	}

	patient, err := h.patients.PatientInfo(r.Context(), name)
	if errors.Is(err, schedule.ErrNoMatch) {
		http.Error(w, "Patient not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("patient lookup failed", "error", err)
		http.Error(w, "Failed to look up patient", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, patientResponse{
		ID:          patient.ID,
		FullName:    patient.FullName,
		DateOfBirth: patient.DateOfBirth,
		Gender:      patient.Gender,
		Phone:       patient.Phone,
		Address:     patient.Address,
		Doctor:      patient.Doctor,
	})
}

// sessionID reads the session cookie, minting and setting a fresh one when the
// request has none.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
