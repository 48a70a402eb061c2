package notifications

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forestapp/wildpark-api/models"
)

func TestBuildPayloadFullBody(t *testing.T) {
	note, data := BuildPayload("inc-1", models.IncidentDetails{
		Species:      "Elephant",
		Location:     "Sector A",
		Severity:     "High",
		ReporterName: "Jane",
		Description:  "  Saw  two  trucks  ",
	})

	assert.Equal(t, "Poaching Alert: Elephant", note.Title)
	assert.Equal(t, "Elephant at Sector A (severity: High) reported by Jane — Saw two trucks", note.Body)
	assert.Equal(t, "inc-1", data["incidentId"])
	assert.Equal(t, "poaching", data["type"])
	assert.Equal(t, "Saw two trucks", data["description"])
}

func TestBuildPayloadOmitsEmptyClauses(t *testing.T) {
	note, _ := BuildPayload("inc-1", models.IncidentDetails{Species: "Rhino"})
	assert.Equal(t, "Rhino", note.Body)

	note, _ = BuildPayload("inc-1", models.IncidentDetails{Species: "Rhino", Severity: "Low"})
	assert.Equal(t, "Rhino (severity: Low)", note.Body)

	note, _ = BuildPayload("inc-1", models.IncidentDetails{Species: "Rhino", ReporterName: "Sam"})
	assert.Equal(t, "Rhino reported by Sam", note.Body)
}

func TestBuildPayloadTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a ", 200) // collapses to 200 chars of "a a a..."
	_, data := BuildPayload("inc-1", models.IncidentDetails{
		Species:     "Pangolin",
		Description: long,
	})

	assert.Len(t, []rune(data["description"]), 120)
}

func TestBuildPayloadStringifiesCoordinates(t *testing.T) {
	note, data := BuildPayload("inc-1", models.IncidentDetails{
		Species:   "Leopard",
		Latitude:  -1.25,
		Longitude: 36.5,
	})

	assert.Equal(t, "-1.25,36.5", data["location"])
	assert.Equal(t, "Leopard at -1.25,36.5", note.Body)
}

func TestBuildPayloadTextLocationWinsOverCoordinates(t *testing.T) {
	_, data := BuildPayload("inc-1", models.IncidentDetails{
		Species:   "Leopard",
		Location:  "North Gate",
		Latitude:  -1.25,
		Longitude: 36.5,
	})

	assert.Equal(t, "North Gate", data["location"])
}

func TestBuildPayloadDataValuesAreAllStrings(t *testing.T) {
	_, data := BuildPayload("inc-9", models.IncidentDetails{
		Species:      "Elephant",
		Location:     "Sector A",
		Severity:     "High",
		ReporterName: "Jane",
		ReportedAt:   "2026-08-30T10:00:00Z",
		Description:  "tracks",
	})

	for _, key := range []string{"incidentId", "type", "species", "location", "severity", "reporter", "reportedAt", "description"} {
		_, ok := data[key]
		assert.True(t, ok, "missing data key %s", key)
	}
	assert.Equal(t, "2026-08-30T10:00:00Z", data["reportedAt"])
}

func TestIsInvalidTokenClassification(t *testing.T) {
	invalid := []string{
		"NotRegistered",
		"InvalidRegistration",
		"MissingRegistration",
		"messaging/registration-token-not-registered",
		"messaging/invalid-registration-token",
		"messaging/invalid-argument",
		"registration-token-not-registered",
	}
	for _, code := range invalid {
		assert.True(t, IsInvalidToken(code), "expected %s to classify as invalid token", code)
	}

	valid := []string{
		"",
		"Unavailable",
		"InternalServerError",
		"DeviceMessageRateExceeded",
		"messaging/server-unavailable",
	}
	for _, code := range valid {
		assert.False(t, IsInvalidToken(code), "expected %s to not classify as invalid token", code)
	}
}

func TestErrorCodeUnwrapsSendError(t *testing.T) {
	assert.Equal(t, "NotRegistered", ErrorCode(&SendError{Code: "NotRegistered"}))
	assert.Equal(t, "", ErrorCode(assert.AnError))
	assert.Equal(t, "", ErrorCode(nil))
}
