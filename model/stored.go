package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PatientRow is the persisted form of a Patient used by the database source.
type PatientRow struct {
	gorm.Model
	PatientID       string             `json:"patient_id" gorm:"column:patient_id;uniqueIndex;size:64"`
	Name            string             `json:"name"`
	DateOfBirth     string             `json:"date_of_birth" gorm:"size:32"`
	BloodType       string             `json:"blood_type" gorm:"size:16"`
	Allergies       datatypes.JSON     `json:"allergies"`
	ProfileImageURL string             `json:"profile_image_url" gorm:"size:512"`
	MedicalHistory  []MedicalRecordRow `json:"medical_history" gorm:"foreignKey:PatientRowID"`
}

func (PatientRow) TableName() string { return "patients" }

// MedicalRecordRow stores one history entry. Position preserves the
// caller-defined display order.
type MedicalRecordRow struct {
	gorm.Model
	PatientRowID uint   `json:"patient_row_id" gorm:"index"`
	RecordID     string `json:"record_id" gorm:"size:64"`
	Position     int    `json:"position"`
	Date         string `json:"date" gorm:"size:32"`
	Type         string `json:"type" gorm:"size:32"`
	Summary      string `json:"summary" gorm:"type:text"`
	Doctor       string `json:"doctor"`
}

func (MedicalRecordRow) TableName() string { return "medical_records" }

// FaceMatch maps a face signature produced by the camera to a patient.
type FaceMatch struct {
	gorm.Model
	Signature string `json:"signature" gorm:"uniqueIndex;size:191"`
	PatientID string `json:"patient_id" gorm:"column:patient_id;size:64;index"`
}

// NewPatientRow converts a Patient into rows ready to be created.
func NewPatientRow(p Patient) (PatientRow, error) {
	allergies := p.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	raw, err := json.Marshal(allergies)
	if err != nil {
		return PatientRow{}, err
	}

	history := make([]MedicalRecordRow, 0, len(p.MedicalHistory))
	for i, r := range p.MedicalHistory {
		if !r.Type.Valid() {
			return PatientRow{}, fmt.Errorf("record %s: invalid record type %d", r.ID, int(r.Type))
		}
		history = append(history, MedicalRecordRow{
			RecordID: r.ID,
			Position: i,
			Date:     r.Date,
			Type:     r.Type.String(),
			Summary:  r.Summary,
			Doctor:   r.Doctor,
		})
	}

	return PatientRow{
		PatientID:       p.ID,
		Name:            p.Name,
		DateOfBirth:     p.DateOfBirth,
		BloodType:       p.BloodType,
		Allergies:       datatypes.JSON(raw),
		ProfileImageURL: p.ProfileImageURL,
		MedicalHistory:  history,
	}, nil
}

// Patient converts the row back into the domain record. MedicalHistory must
// already be ordered by Position.
func (r PatientRow) Patient() (Patient, error) {
	allergies := []string{}
	if len(r.Allergies) > 0 {
		if err := json.Unmarshal(r.Allergies, &allergies); err != nil {
			return Patient{}, fmt.Errorf("decode allergies of %s: %w", r.PatientID, err)
		}
	}

	history := make([]MedicalRecord, 0, len(r.MedicalHistory))
	for _, row := range r.MedicalHistory {
		t, err := ParseRecordType(row.Type)
		if err != nil {
			return Patient{}, fmt.Errorf("record %s: %w", row.RecordID, err)
		}
		history = append(history, MedicalRecord{
			ID:      row.RecordID,
			Date:    row.Date,
			Type:    t,
			Summary: row.Summary,
			Doctor:  row.Doctor,
		})
	}

	return Patient{
		ID:              r.PatientID,
		Name:            r.Name,
		DateOfBirth:     r.DateOfBirth,
		BloodType:       r.BloodType,
		Allergies:       allergies,
		ProfileImageURL: r.ProfileImageURL,
		MedicalHistory:  history,
	}, nil
}
