package types

// Patient is the slice of the patient registry this core consumes: identity
// plus display name. The full record shape is owned by the registry module.
type Patient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date,omitempty"`
	CNS       string `json:"cns,omitempty"` // national health card number
	Phone     string `json:"phone,omitempty"`
	Community string `json:"community,omitempty"`
}

// User is a system account able to sign in.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"` // stored as-is; see DESIGN.md on the inherited limitation
	Role     string `json:"role"`
	// PatientID links paciente-role accounts to their registry record.
	PatientID string `json:"patient_id,omitempty"`
}

// Actor identifies who is performing an operation: the session identity the
// workflow engine authorizes transitions against.
type Actor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	PatientID string `json:"patient_id,omitempty"`
}
