package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ClinicTimeLayout is the wall-clock format appointments are stored with.
// Minute precision, local civil time, no zone offset.
const ClinicTimeLayout = "2006-01-02T15:04"

// ClinicDateLayout is the calendar-date portion used for same-day filtering.
const ClinicDateLayout = "2006-01-02"

var dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Appointment is the central scheduling entity. Triage and encounter data are
// attached to it as the appointment moves through its lifecycle.
type Appointment struct {
	ID          string            `json:"id"`
	PatientID   string            `json:"patient_id"`
	PatientName string            `json:"patientName,omitempty"`
	DoctorID    string            `json:"doctor_id,omitempty"`
	DoctorName  string            `json:"doctorName,omitempty"`
	Date        string            `json:"date"` // ClinicTimeLayout
	Type        AppointmentType   `json:"type"`
	Reason      string            `json:"reason,omitempty"`
	Status      AppointmentStatus `json:"status"`

	Triage   *TriageRecord `json:"triage,omitempty"`
	TriageBy string        `json:"triage_by,omitempty"`
	TriageAt string        `json:"triage_at,omitempty"`

	// Clinical encounter fields, set when the physician finalizes.
	Description  string `json:"description,omitempty"` // evolution / anamnesis
	Diagnosis    string `json:"diagnosis,omitempty"`
	Prescription string `json:"prescription,omitempty"`
	AttendedBy   string `json:"attended_by,omitempty"`
	AttendedAt   string `json:"attended_at,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// AppointmentStatus is the appointment lifecycle state.
type AppointmentStatus string

const (
	StatusScheduled      AppointmentStatus = "Agendado"
	StatusAwaitingCare   AppointmentStatus = "Aguardando Atendimento"
	StatusAwaitingDoctor AppointmentStatus = "Aguardando Médico"
	StatusInProgress     AppointmentStatus = "Em Atendimento"
	StatusCompleted      AppointmentStatus = "Realizado"
	StatusCancelled      AppointmentStatus = "Cancelado"
)

// AllStatuses lists every valid lifecycle state.
var AllStatuses = []AppointmentStatus{
	StatusScheduled,
	StatusAwaitingCare,
	StatusAwaitingDoctor,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether s is one of the defined lifecycle states.
func (s AppointmentStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AppointmentType is the encounter type.
type AppointmentType string

const (
	TypeConsultation AppointmentType = "Consulta"
	TypeFollowUp     AppointmentType = "Retorno"
	TypePreOp        AppointmentType = "Avaliação Pré-operatória"
	TypeProcedure    AppointmentType = "Procedimento"
	TypeTele         AppointmentType = "Teleconsulta"
	TypeUrgent       AppointmentType = "Urgência"
	TypeTriage       AppointmentType = "Triagem"
)

// AllAppointmentTypes lists the encounter types offered at scheduling.
var AllAppointmentTypes = []AppointmentType{
	TypeConsultation, TypeFollowUp, TypePreOp, TypeProcedure, TypeTele, TypeUrgent, TypeTriage,
}

// Valid reports whether t is a known encounter type.
func (t AppointmentType) Valid() bool {
	for _, known := range AllAppointmentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ScheduleRequest carries the fields reception submits to create an appointment.
type ScheduleRequest struct {
	PatientID string          `json:"patient_id"`
	DoctorID  string          `json:"doctor_id,omitempty"`
	Date      string          `json:"date"` // "2006-01-02"
	Time      string          `json:"time"` // "15:04"
	Type      AppointmentType `json:"type"`
	Reason    string          `json:"reason,omitempty"`
}

// ValidDateOnly reports whether s is a bare "YYYY-MM-DD" calendar date.
func ValidDateOnly(s string) bool {
	if !dateOnlyPattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(ClinicDateLayout, s)
	return err == nil
}

// ParseClinicTime parses an appointment date-time in local civil time. It
// accepts the canonical minute-precision layout and tolerates a trailing
// seconds component from older records.
func ParseClinicTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(ClinicTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable appointment date %q", s)
}

// DatePart returns the calendar-date portion of a stored appointment
// date-time, independent of the time of day.
func DatePart(date string) string {
	if i := strings.IndexByte(date, 'T'); i >= 0 {
		return date[:i]
	}
	return date
}

// SameDay reports whether a stored appointment date falls on the given
// viewer-local calendar day. Only the date portion is compared.
func SameDay(date string, day time.Time) bool {
	return DatePart(date) == day.Format(ClinicDateLayout)
}
