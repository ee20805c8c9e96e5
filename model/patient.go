package model

// MedicalRecord is one entry of a patient's history. Records are never
// mutated once created.
type MedicalRecord struct {
	ID      string     `json:"id"`
	Date    string     `json:"date"`
	Type    RecordType `json:"type"`
	Summary string     `json:"summary"`
	Doctor  string     `json:"doctor"`
}

// Patient is the record shown at the kiosk after a successful detection.
// MedicalHistory is kept in insertion order, which is also display order.
type Patient struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	DateOfBirth     string          `json:"date_of_birth"`
	BloodType       string          `json:"blood_type"`
	Allergies       []string        `json:"allergies"`
	ProfileImageURL string          `json:"profile_image_url"`
	MedicalHistory  []MedicalRecord `json:"medical_history"`
}

// Clone returns a deep copy so a draft can be mutated without touching the
// displayed record.
func (p Patient) Clone() Patient {
	out := p
	if p.Allergies != nil {
		out.Allergies = make([]string, len(p.Allergies))
		copy(out.Allergies, p.Allergies)
	}
	if p.MedicalHistory != nil {
		out.MedicalHistory = make([]MedicalRecord, len(p.MedicalHistory))
		copy(out.MedicalHistory, p.MedicalHistory)
	}
	return out
}

// RecordIDs lists the history identifiers in display order.
func (p Patient) RecordIDs() []string {
	ids := make([]string, 0, len(p.MedicalHistory))
	for _, r := range p.MedicalHistory {
		ids = append(ids, r.ID)
	}
	return ids
}
