package models

// Animal holds the structure for the animal census collection in mongo
type Animal struct {
	ID      string        `json:"_id" bson:"_id"`
	Details AnimalDetails `json:"animal" bson:"animal"`
	Version int32         `json:"__v" bson:"__v"`
}

// AnimalDetails holds the structure for the inner animal structure as
// defined in the animal collection in mongo
type AnimalDetails struct {
	Species      string      `json:"species" bson:"species"`
	Count        int         `json:"count" bson:"count"`
	Location     string      `json:"location" bson:"location"`
	ParkID       string      `json:"parkID" bson:"parkID"`
	Behavior     string      `json:"behavior" bson:"behavior"`
	Notes        string      `json:"notes" bson:"notes"`
	RecordedBy   string      `json:"recordedBy" bson:"recordedBy"`
	RecordedByID string      `json:"recordedByID" bson:"recordedByID"`
	CreatedAt    interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt    interface{} `json:"updatedAt" bson:"updatedAt"`
}

// CensusEntry is one row of the species census aggregation
type CensusEntry struct {
	Species   string `json:"species" bson:"_id"`
	Total     int    `json:"total" bson:"total"`
	Sightings int    `json:"sightings" bson:"sightings"`
}
