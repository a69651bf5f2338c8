package calendar

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careline-be/internal/models"
)

func TestEventURL(t *testing.T) {
	item := models.ScheduleItem{
		Title:    "Follow-up: Sam Reyes",
		Start:    time.Date(2026, 4, 1, 14, 30, 0, 0, time.UTC),
		End:      time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC),
		Details:  "Post-op check & wound review",
		Location: "Clinic 3, Room 12",
	}

	raw := EventURL(item)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, item.Title, q.Get("text"))
	assert.Equal(t, "20260401T143000Z/20260401T150000Z", q.Get("dates"))
	assert.Equal(t, item.Details, q.Get("details"))
	assert.Equal(t, item.Location, q.Get("location"))
}

func TestEventURLOmitsEmptyOptionalParams(t *testing.T) {
	item := models.ScheduleItem{
		Title: "Rounds",
		Start: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}

	u, err := url.Parse(EventURL(item))
	require.NoError(t, err)
	q := u.Query()
	assert.False(t, q.Has("details"))
	assert.False(t, q.Has("location"))
}

func TestEventURLConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	item := models.ScheduleItem{
		Title: "Consult",
		Start: time.Date(2026, 4, 1, 10, 0, 0, 0, loc),
		End:   time.Date(2026, 4, 1, 10, 30, 0, 0, loc),
	}

	u, _ := url.Parse(EventURL(item))
	assert.Equal(t, "20260401T080000Z/20260401T083000Z", u.Query().Get("dates"))
}
