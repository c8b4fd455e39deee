package types

import "time"

// ReceptionFilter restricts the reception queue projection. Zero values
// mean "no restriction".
type ReceptionFilter struct {
	// Search matches case-insensitively against the patient display name.
	Search string
	// Status keeps only appointments in the given state.
	Status AppointmentStatus
}

// History record types, tagged onto entries handed to the report exporter.
const (
	HistoryEncounter   = "Atendimento"
	HistoryLabTest     = "Exame Laboratorial"
	HistoryVaccination = "Vacina"
)

// HistoryEntry is one event in a patient's assembled clinical history.
type HistoryEntry struct {
	RecordType string    `json:"record_type"`
	Date       time.Time `json:"date"`
	Record     Record    `json:"record"`
}
