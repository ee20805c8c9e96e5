package source

import (
	"errors"
	"fmt"

	"github.com/ariebrainware/patient-checkin/model"
	"gorm.io/gorm"
)

// Seed stores p and maps signature to it. Seeding an already known patient
// only refreshes the face match.
func Seed(db *gorm.DB, signature string, p model.Patient) error {
	if p.ID == "" {
		return fmt.Errorf("seed: patient id is required")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var existing model.PatientRow
		err := tx.Where("patient_id = ?", p.ID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row, err := model.NewPatientRow(p)
			if err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed patient %s: %w", p.ID, err)
			}
		case err != nil:
			return err
		}

		if signature == "" {
			return nil
		}
		var match model.FaceMatch
		err = tx.Where("signature = ?", signature).First(&match).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&model.FaceMatch{Signature: signature, PatientID: p.ID}).Error
		case err != nil:
			return err
		}
		if match.PatientID == p.ID {
			return nil
		}
		match.PatientID = p.ID
		return tx.Save(&match).Error
	})
}

// Migrate creates the tables used by Store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.PatientRow{}, &model.MedicalRecordRow{}, &model.FaceMatch{})
}
