package types

// LabStatus is the lab test order state.
type LabStatus string

const (
	LabPending   LabStatus = "Pendente"
	LabCompleted LabStatus = "Concluído"
	LabUrgent    LabStatus = "Urgente"
)

// LabTestOrder is a laboratory exam request tracked in the labTests
// collection. It shares the persistence facade contract but lives outside
// the appointment state machine.
type LabTestOrder struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patientName,omitempty"`
	TestName    string    `json:"testName"`
	Status      LabStatus `json:"status"`
	File        string    `json:"file,omitempty"`    // result attachment reference
	Opinion     string    `json:"opinion,omitempty"` // medical opinion (laudo)
	RequestedBy string    `json:"requested_by,omitempty"`
	PerformedBy string    `json:"performed_by,omitempty"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at,omitempty"`
}
