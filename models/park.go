package models

// Park holds the structure for the park collection in mongo
type Park struct {
	ID      string      `json:"_id" bson:"_id"`
	Details ParkDetails `json:"park" bson:"park"`
	Version int32       `json:"__v" bson:"__v"`
}

// ParkDetails holds the structure for the inner park structure as defined
// in the park collection in mongo
type ParkDetails struct {
	Name        string      `json:"name" bson:"name"`
	Region      string      `json:"region" bson:"region"`
	Description string      `json:"description" bson:"description"`
	Terrain     []string    `json:"terrain" bson:"terrain"`
	Activities  []string    `json:"activities" bson:"activities"`
	Species     []string    `json:"species" bson:"species"`
	ImageURL    string      `json:"imageUrl" bson:"imageUrl"`
	CreatedAt   interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt   interface{} `json:"updatedAt" bson:"updatedAt"`
}
