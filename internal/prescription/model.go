package prescription

// DoctorInfo holds the prescriber details read off a prescription.
type DoctorInfo struct {
	HospitalName       string `json:"hospital_name,omitempty"`
	HospitalAddress    string `json:"hospital_address,omitempty"`
	DoctorName         string `json:"doctor_name,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
}

// PatientInfo holds the patient details read off a prescription.
type PatientInfo struct {
	Name      string `json:"name,omitempty"`
	Age       string `json:"age,omitempty"`
	PatientID string `json:"patient_id,omitempty"`
	Date      string `json:"date,omitempty"`
}

// Medicine is a single prescribed medicine line.
type Medicine struct {
	MedicineName      string `json:"medicine_name"`
	Dosage            string `json:"dosage,omitempty"`             // e.g. "500mg", "10ml"
	DosageInstruction string `json:"dosage_instruction,omitempty"` // e.g. "1-0-1", "twice daily"
	Timing            string `json:"timing,omitempty"`             // "AF" (after food) or "BF" (before food)
	Duration          string `json:"duration,omitempty"`           // e.g. "5 days"
}

// Data is the structured output of prescription OCR.
type Data struct {
	DoctorInfo  *DoctorInfo  `json:"doctor_info,omitempty"`
	PatientInfo *PatientInfo `json:"patient_info,omitempty"`
	Medicines   []Medicine   `json:"medicines"`
}

// MedicineNames returns the bare medicine names, in prescription order.
func (d *Data) MedicineNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Medicines))
	for _, m := range d.Medicines {
		if m.MedicineName != "" {
			names = append(names, m.MedicineName)
		}
	}
	return names
}

// SafetyResult is one medicine's regulatory check outcome. Flagged means the
// medicine is banned, withdrawn, or a scheduled narcotic/psychotropic.
type SafetyResult struct {
	MedicineName string `json:"medicine_name"`
	Flagged      bool   `json:"flagged"`
}
