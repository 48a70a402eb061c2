package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/forestapp/wildpark-api/config"
	"github.com/forestapp/wildpark-api/models"
	"github.com/forestapp/wildpark-api/recommender"
)

// Recommendation exported for testing purposes
type Recommendation struct {
	Engine recommender.Engine
}

// RecommendationHandler scores the visitor's 0/1 preference features against
// the trained model and returns the top parks
func (rec Recommendation) RecommendationHandler(w http.ResponseWriter, r *http.Request) {
	var prefs map[string]int
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	results, err := rec.Engine.Recommend(r.Context(), prefs)
	if err != nil {
		config.ErrorStatus("failed to get recommendations", http.StatusInternalServerError, w, err)
		return
	}
	if len(results) == 0 {
		results = []models.ParkRecommendation{}
	}

	b, err := json.Marshal(results)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SeasonalPredictionHandler forecasts a species' seasonal behavior for a
// given month. Optional migration and weather query params refine the
// prediction.
func (rec Recommendation) SeasonalPredictionHandler(w http.ResponseWriter, r *http.Request) {
	species := mux.Vars(r)["species"]

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		config.ErrorStatus("month must be between 1 and 12", http.StatusBadRequest, w, fmt.Errorf("invalid month"))
		return
	}

	migration := r.URL.Query().Get("migration")
	weather := r.URL.Query().Get("weather")

	prediction, err := rec.Engine.PredictSeasonal(r.Context(), species, month, migration, weather)
	if err != nil {
		config.ErrorStatus("failed to get seasonal prediction", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(prediction)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SupportedSpeciesHandler lists the species covered by the seasonal model
func (rec Recommendation) SupportedSpeciesHandler(w http.ResponseWriter, r *http.Request) {
	species, err := rec.Engine.SupportedSpecies(r.Context())
	if err != nil {
		config.ErrorStatus("failed to get supported species", http.StatusInternalServerError, w, err)
		return
	}
	if len(species) == 0 {
		species = []string{}
	}

	b, err := json.Marshal(species)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
