package store

import (
	"fmt"
	"math/rand"

	"careline-be/internal/models"
)

// NewPatient is the input to AddPatient. MRN is generated, never supplied.
type NewPatient struct {
	UserID      string
	DOB         string
	Address     string
	Diagnosis   []string
	Medications []string
	Allergies   []string
}

// AddPatient creates a patient profile with a generated, unique MRN.
// Profiles are replaced wholesale, never edited field-by-field.
func (s *Store) AddPatient(in NewPatient) models.PatientProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.PatientProfile{
		ID:            s.newID(),
		UserID:        in.UserID,
		MRN:           s.generateMRN(),
		DOB:           in.DOB,
		Address:       in.Address,
		Diagnosis:     append([]string(nil), in.Diagnosis...),
		Medications:   append([]string(nil), in.Medications...),
		Allergies:     append([]string(nil), in.Allergies...),
		VitalsHistory: []models.VitalsEntry{},
		CreatedAt:     s.now(),
	}
	s.patients = append(s.patients, p)
	return copyPatient(p)
}

// generateMRN builds an MRN from the current timestamp plus a random
// suffix, retrying on the (unlikely) collision. Caller holds the lock.
func (s *Store) generateMRN() string {
	for {
		mrn := fmt.Sprintf("MRN-%d-%04d", s.now().Unix(), rand.Intn(10000))
		if !s.mrnTaken(mrn) {
			return mrn
		}
	}
}

func (s *Store) mrnTaken(mrn string) bool {
	for _, p := range s.patients {
		if p.MRN == mrn {
			return true
		}
	}
	return false
}

// ReplacePatient swaps the stored profile for the one with the same id.
// Unknown id is a no-op; the MRN is kept from the existing record.
func (s *Store) ReplacePatient(p models.PatientProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.patients {
		if cur.ID == p.ID {
			p.MRN = cur.MRN
			cp := p
			s.patients[i] = &cp
			return
		}
	}
}

// Patient returns the profile with the given id.
func (s *Store) Patient(id string) (models.PatientProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.ID == id {
			return copyPatient(p), true
		}
	}
	return models.PatientProfile{}, false
}

// Patients returns all patient profiles in creation order.
func (s *Store) Patients() []models.PatientProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PatientProfile, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, copyPatient(p))
	}
	return out
}

// AddVitals appends a reading to the patient's vitals history. A zero
// RecordedAt is stamped with the current time.
func (s *Store) AddVitals(patientID string, v models.VitalsEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.ID != patientID {
			continue
		}
		if v.RecordedAt.IsZero() {
			v.RecordedAt = s.now()
		}
		p.VitalsHistory = append(p.VitalsHistory, v)
		return
	}
}

func copyPatient(p *models.PatientProfile) models.PatientProfile {
	out := *p
	out.Diagnosis = append([]string(nil), p.Diagnosis...)
	out.Medications = append([]string(nil), p.Medications...)
	out.Allergies = append([]string(nil), p.Allergies...)
	out.VitalsHistory = append([]models.VitalsEntry(nil), p.VitalsHistory...)
	return out
}
