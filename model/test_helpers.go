package model

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a uniquely named in-memory SQLite database and migrates
// the given models into it.
func setupTestDB(t *testing.T, name string, models ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("failed to auto-migrate models: %v", err)
		}
	}

	return db
}

func samplePatient() Patient {
	return Patient{
		ID:              "PAT-100",
		Name:            "Sam Rivera",
		DateOfBirth:     "1990-01-31",
		BloodType:       "A-",
		Allergies:       []string{"Latex", "Pollen"},
		ProfileImageURL: "https://example.com/sam.png",
		MedicalHistory: []MedicalRecord{
			{ID: "REC-2", Date: "2024-02-01", Type: LabResults, Summary: "Vitamin D low.", Doctor: "Dr. Ito"},
			{ID: "REC-1", Date: "2023-07-12", Type: Surgery, Summary: "Knee arthroscopy.", Doctor: "Dr. Okafor"},
		},
	}
}
