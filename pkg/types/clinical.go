package types

// VitalSigns holds the numeric-as-text vital sign readings captured at
// triage. Every field is optional; units follow the triage form labels.
type VitalSigns struct {
	BloodPressure   string `json:"bp,omitempty"`      // mmHg, e.g. "120/80"
	HeartRate       string `json:"hr,omitempty"`      // bpm
	Temperature     string `json:"temp,omitempty"`    // °C
	RespiratoryRate string `json:"rr,omitempty"`      // rpm
	Saturation      string `json:"sat,omitempty"`     // SatO2 %
	Weight          string `json:"weight,omitempty"`  // kg
	Height          string `json:"height,omitempty"`  // cm
	Glucose         string `json:"glucose,omitempty"` // mg/dL
}

// RiskLevel is the ordinal triage risk classification, lowest acuity first.
type RiskLevel string

const (
	RiskBlue   RiskLevel = "blue"
	RiskGreen  RiskLevel = "green"
	RiskYellow RiskLevel = "yellow"
	RiskOrange RiskLevel = "orange"
	RiskRed    RiskLevel = "red"
)

var riskOrder = map[RiskLevel]int{
	RiskBlue: 0, RiskGreen: 1, RiskYellow: 2, RiskOrange: 3, RiskRed: 4,
}

// Valid reports whether r is one of the five classification levels.
func (r RiskLevel) Valid() bool {
	_, ok := riskOrder[r]
	return ok
}

// Acuity returns the ordinal position of r (blue lowest). Descriptive
// metadata only; no transition rule or sort order consults it.
func (r RiskLevel) Acuity() int {
	return riskOrder[r]
}

// TriageRecord is the nursing assessment attached to an appointment when the
// triage save moves it to "Aguardando Médico". Chief complaint is the only
// required field.
type TriageRecord struct {
	VitalSigns         VitalSigns `json:"vital_signs"`
	ChiefComplaint     string     `json:"chief_complaint"`
	MedicalHistory     string     `json:"medical_history,omitempty"`
	Allergies          string     `json:"allergies,omitempty"`
	CurrentMedications string     `json:"current_medications,omitempty"`
	PainLevel          string     `json:"pain_level,omitempty"`
	Consciousness      string     `json:"consciousness,omitempty"`
	RiskClassification RiskLevel  `json:"risk_classification,omitempty"`
	TriagedAt          string     `json:"triage_at,omitempty"`
}

// EncounterRecord carries the physician's clinical documentation submitted on
// finalize. Evolution and diagnosis must both be non-empty before the
// appointment may become "Realizado".
type EncounterRecord struct {
	Evolution    string `json:"evolution"`
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription,omitempty"`
}
