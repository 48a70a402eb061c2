package models

// Severity levels accepted for a poaching incident
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// Incident holds the structure for the incident collection in mongo
type Incident struct {
	ID      string          `json:"_id" bson:"_id"`
	Details IncidentDetails `json:"incident" bson:"incident"`
	Version int32           `json:"__v" bson:"__v"`
}

// IncidentDetails holds the structure for the inner incident structure as
// defined in the incident collection in mongo
type IncidentDetails struct {
	Species      string      `json:"species" bson:"species"`
	Location     string      `json:"location" bson:"location"`
	Latitude     float64     `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude    float64     `json:"longitude,omitempty" bson:"longitude,omitempty"`
	Severity     string      `json:"severity" bson:"severity"`
	Description  string      `json:"description" bson:"description"`
	ReporterName string      `json:"reporterName" bson:"reporterName"`
	ReporterID   string      `json:"reporterID" bson:"reporterID"`
	ReporterRole string      `json:"reporterRole" bson:"reporterRole"`
	ParkID       string      `json:"parkID" bson:"parkID"`
	Status       string      `json:"status" bson:"status"`
	ReportedAt   string      `json:"reportedAt" bson:"reportedAt"`
	CreatedAt    interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt    interface{} `json:"updatedAt" bson:"updatedAt"`
}
