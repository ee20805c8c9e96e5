package source

import (
	"context"
	"time"

	"github.com/ariebrainware/patient-checkin/model"
)

// DefaultLatency is the simulated lookup time of the mock source.
const DefaultLatency = 500 * time.Millisecond

// Mock returns a fixed patient after Latency, or Err when set.
type Mock struct {
	Patient model.Patient
	Latency time.Duration
	Err     error
}

// NewMock returns a Mock serving DemoPatient with DefaultLatency.
func NewMock() *Mock {
	return &Mock{Patient: DemoPatient(), Latency: DefaultLatency}
}

func (m *Mock) FetchPatient(ctx context.Context, _ Query) (model.Patient, error) {
	if m.Latency > 0 {
		timer := time.NewTimer(m.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.Patient{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return model.Patient{}, err
	}

	if m.Err != nil {
		return model.Patient{}, m.Err
	}
	return m.Patient.Clone(), nil
}

// DemoPatient is the record served by the kiosk demo.
func DemoPatient() model.Patient {
	return model.Patient{
		ID:              "PAT-001",
		Name:            "Jane Doe",
		DateOfBirth:     "1985-05-22",
		BloodType:       "O+",
		Allergies:       []string{"Peanuts", "Penicillin"},
		ProfileImageURL: "https://picsum.photos/seed/janedoe/200/200",
		MedicalHistory: []model.MedicalRecord{
			{
				ID:      "REC-005",
				Date:    "2024-05-10",
				Type:    model.CheckUp,
				Summary: "Annual physical examination. All vitals are normal. Recommended to continue current lifestyle.",
				Doctor:  "Dr. Evelyn Reed",
			},
			{
				ID:      "REC-004",
				Date:    "2023-11-20",
				Type:    model.LabResults,
				Summary: "Blood panel results show slightly elevated cholesterol. Discussed dietary changes.",
				Doctor:  "Dr. Evelyn Reed",
			},
			{
				ID:      "REC-003",
				Date:    "2023-03-15",
				Type:    model.Prescription,
				Summary: "Prescribed Amoxicillin for a bacterial infection.",
				Doctor:  "Dr. Ben Carter",
			},
			{
				ID:      "REC-002",
				Date:    "2022-09-01",
				Type:    model.EmergencyVisit,
				Summary: "Treated for a minor wrist fracture from a fall. Cast applied.",
				Doctor:  "Dr. Maria Garcia",
			},
			{
				ID:      "REC-001",
				Date:    "2021-06-05",
				Type:    model.Surgery,
				Summary: "Appendectomy procedure. Successful, with no complications.",
				Doctor:  "Dr. Robert Chen",
			},
		},
	}
}
