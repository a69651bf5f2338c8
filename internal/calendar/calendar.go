// Package calendar builds deep links into the external calendar service.
// This is a pure string-formatting boundary; nothing is called over the
// network.
package calendar

import (
	"net/url"
	"time"

	"careline-be/internal/models"
)

const renderBase = "https://calendar.google.com/calendar/render"

const stampLayout = "20060102T150405Z"

// EventURL builds the add-to-calendar link for a schedule item. All query
// parameters are URL-encoded; times are rendered in UTC.
func EventURL(item models.ScheduleItem) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", item.Title)
	q.Set("dates", stamp(item.Start)+"/"+stamp(item.End))
	if item.Details != "" {
		q.Set("details", item.Details)
	}
	if item.Location != "" {
		q.Set("location", item.Location)
	}
	return renderBase + "?" + q.Encode()
}

func stamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}
