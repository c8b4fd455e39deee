package types

// VaccineStockItem is a batch of doses in the vaccine_stock collection.
type VaccineStockItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Batch    string `json:"batch,omitempty"`
	Quantity int    `json:"quantity"`
	Expiry   string `json:"expiry,omitempty"` // "2006-01-02"
}

// Vaccination records one applied dose, consuming a unit from the stock item
// it references.
type Vaccination struct {
	ID              string `json:"id"`
	PatientID       string `json:"patient_id"`
	VaccineStockID  string `json:"vaccine_stock_id"`
	VaccineName     string `json:"vaccine_name,omitempty"` // denormalized for display
	Dose            string `json:"dose,omitempty"`
	VaccinationDate string `json:"vaccination_date"` // "2006-01-02"
	AppliedBy       string `json:"applied_by,omitempty"`
	CreatedAt       string `json:"created_at"`
}
