package models

// SeasonalPrediction is the model's seasonal behavior forecast for one
// species in one month
type SeasonalPrediction struct {
	PrimaryBehavior   string `json:"primaryBehavior"`
	BreedingSeason    bool   `json:"breedingSeason"`
	BreedingPeak      bool   `json:"breedingPeak"`
	ActivityLevel     string `json:"activityLevel"`
	ThreatLevel       string `json:"threatLevel"`
	MigrationTendency string `json:"migrationTendency"`
	PopulationPeak    bool   `json:"populationPeak"`
	Recommendation    string `json:"recommendation"`
	Confidence        string `json:"confidence"`
	Success           bool   `json:"success"`
}
