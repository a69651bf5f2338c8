package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careline-be/internal/models"
	"careline-be/internal/store"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestPreferencesDefaults(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	prefs := s.Preferences()
	assert.Equal(t, models.DefaultTemplate, prefs.DefaultTemplate)
	assert.False(t, prefs.AutoScribe)
}

func TestPreferencesRoundTripThroughPersistence(t *testing.T) {
	kv := newFakeKV()
	s, _ := newStore(t, nil, kv)

	favs := []string{"soap", "apso"}
	s.UpdatePreferences(store.PreferencesPatch{
		DefaultTemplate:   strPtr("apso"),
		FavoriteTemplates: &favs,
		AutoScribe:        boolPtr(true),
	})

	// a fresh store over the same storage sees the persisted values
	reloaded := store.New(nil, kv)
	prefs := reloaded.Preferences()
	assert.Equal(t, "apso", prefs.DefaultTemplate)
	assert.Equal(t, favs, prefs.FavoriteTemplates)
	assert.True(t, prefs.AutoScribe)
}

func TestPreferencesPatchLeavesUnsetFields(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	s.UpdatePreferences(store.PreferencesPatch{AutoScribe: boolPtr(true)})

	prefs := s.Preferences()
	assert.Equal(t, models.DefaultTemplate, prefs.DefaultTemplate)
	assert.True(t, prefs.AutoScribe)
}

func TestExportedCalendarIDsPersist(t *testing.T) {
	kv := newFakeKV()
	s, _ := newStore(t, nil, kv)

	id := s.AddScheduleItem(models.ScheduleItem{Title: "Follow-up"})
	require.False(t, s.ExportedToCalendar(id))

	s.MarkExportedToCalendar(id)
	assert.True(t, s.ExportedToCalendar(id))

	reloaded := store.New(nil, kv)
	assert.True(t, reloaded.ExportedToCalendar(id))
}

func TestPatientMRNIsUniqueAndGenerated(t *testing.T) {
	s, _ := newStore(t, nil, nil)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		p := s.AddPatient(store.NewPatient{UserID: "u3", DOB: "1990-04-02"})
		require.NotEmpty(t, p.MRN)
		assert.False(t, seen[p.MRN], "duplicate MRN %s", p.MRN)
		seen[p.MRN] = true
	}
}

func TestReplacePatientKeepsMRN(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	p := s.AddPatient(store.NewPatient{UserID: "u3", DOB: "1990-04-02", Diagnosis: []string{"HTN"}})

	updated := p
	updated.MRN = "forged"
	updated.Diagnosis = []string{"HTN", "T2DM"}
	s.ReplacePatient(updated)

	got, ok := s.Patient(p.ID)
	require.True(t, ok)
	assert.Equal(t, p.MRN, got.MRN)
	assert.Equal(t, []string{"HTN", "T2DM"}, got.Diagnosis)
}

func TestAddVitalsAppendsToHistory(t *testing.T) {
	s, clock := newStore(t, nil, nil)
	p := s.AddPatient(store.NewPatient{UserID: "u3", DOB: "1990-04-02"})

	s.AddVitals(p.ID, models.VitalsEntry{SystolicBP: 120, DiastolicBP: 80, PulseRate: 64})

	got, _ := s.Patient(p.ID)
	require.Len(t, got.VitalsHistory, 1)
	assert.Equal(t, 120, got.VitalsHistory[0].SystolicBP)
	assert.Equal(t, clock.Now(), got.VitalsHistory[0].RecordedAt)
}
