package models

// ParkRecommendation is one scored park returned by the recommendation engine
type ParkRecommendation struct {
	Park  string  `json:"park"`
	Score float64 `json:"score"`
}
