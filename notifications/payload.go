package notifications

import (
	"strconv"
	"strings"

	"github.com/forestapp/wildpark-api/models"
)

// maxDescriptionLen caps how much of the free-text description is rendered
// into the notification, measured after whitespace collapse.
const maxDescriptionLen = 120

// Notification is the visible title and body of a push message
type Notification struct {
	Title string
	Body  string
}

// Options carries the platform delivery hints sent with every incident alert
type Options struct {
	Priority         string
	Sound            string
	ContentAvailable bool
}

func defaultOptions() Options {
	return Options{
		Priority:         "high",
		Sound:            "default",
		ContentAvailable: true,
	}
}

// BuildPayload renders the notification and the flat string data map for one
// incident. Clauses whose source field is empty are omitted from the body.
func BuildPayload(incidentID string, d models.IncidentDetails) (Notification, map[string]string) {
	species := collapseWhitespace(d.Species)
	location := collapseWhitespace(d.Location)
	if location == "" && (d.Latitude != 0 || d.Longitude != 0) {
		location = strconv.FormatFloat(d.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(d.Longitude, 'f', -1, 64)
	}
	severity := collapseWhitespace(d.Severity)
	reporter := collapseWhitespace(d.ReporterName)
	description := truncate(collapseWhitespace(d.Description), maxDescriptionLen)

	var b strings.Builder
	b.WriteString(species)
	if location != "" {
		b.WriteString(" at " + location)
	}
	if severity != "" {
		b.WriteString(" (severity: " + severity + ")")
	}
	if reporter != "" {
		b.WriteString(" reported by " + reporter)
	}
	if description != "" {
		b.WriteString(" — " + description)
	}

	note := Notification{
		Title: "Poaching Alert: " + species,
		Body:  b.String(),
	}

	// FCM requires a flat string-to-string data map
	data := map[string]string{
		"incidentId":  incidentID,
		"type":        "poaching",
		"species":     species,
		"location":    location,
		"severity":    severity,
		"reporter":    reporter,
		"reportedAt":  d.ReportedAt,
		"description": description,
	}
	return note, data
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
