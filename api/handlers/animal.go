package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/forestapp/wildpark-api/api"
	"github.com/forestapp/wildpark-api/config"
	"github.com/forestapp/wildpark-api/databases"
	"github.com/forestapp/wildpark-api/models"
)

// Animal exported for testing purposes
type Animal struct {
	DB databases.AnimalDatabase
}

// AnimalHandler returns all animal sightings
func (a Animal) AnimalHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)
	dbResp, err := a.DB.Find(context.TODO(), bson.D{}, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get animals", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Animal{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AnimalByIDHandler returns an animal sighting by ID
func (a Animal) AnimalByIDHandler(w http.ResponseWriter, r *http.Request) {
	animalID := mux.Vars(r)["animal_id"]

	zap.S().Debugf("animal_id: %v", animalID)

	aID, err := primitive.ObjectIDFromHex(animalID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := a.DB.FindOne(context.Background(), bson.M{"_id": aID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to get animal by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AnimalsByParkIDHandler returns all animal sightings recorded inside the given park
func (a Animal) AnimalsByParkIDHandler(w http.ResponseWriter, r *http.Request) {
	parkID := mux.Vars(r)["park_id"]
	species := r.URL.Query().Get("species")
	zap.S().Debugf("park_id: '%v'", parkID)

	var filter bson.M
	if parkID != "" && parkID != "null" && parkID != "undefined" {
		filter = bson.M{
			"animal.parkID": parkID,
		}
		if species != "" {
			filter["animal.species"] = species
		}
	}

	dbResp, err := a.DB.Find(context.TODO(), filter)
	if err != nil {
		config.ErrorStatus("failed to get animals with park id", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Animal{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AnimalCensusHandler aggregates sightings into per-species totals
func (a Animal) AnimalCensusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":       "$animal.species",
			"total":     bson.M{"$sum": "$animal.count"},
			"sightings": bson.M{"$sum": 1},
		}},
		{"$sort": bson.M{"total": -1}},
	}

	cursor, err := a.DB.Aggregate(ctx, pipeline)
	if err != nil {
		config.ErrorStatus("failed to aggregate animal census", http.StatusInternalServerError, w, err)
		return
	}

	var census []models.CensusEntry
	if err := cursor.Decode(&census); err != nil {
		config.ErrorStatus("failed to decode animal census", http.StatusInternalServerError, w, err)
		return
	}

	if len(census) == 0 {
		census = []models.CensusEntry{}
	}
	b, err := json.Marshal(census)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateAnimalHandler records a new animal sighting
func (a Animal) CreateAnimalHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody models.AnimalDetails
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if requestBody.Species == "" {
		config.ErrorStatus("species is required", http.StatusBadRequest, w, fmt.Errorf("missing species"))
		return
	}
	if requestBody.Count <= 0 {
		requestBody.Count = 1
	}

	requestBody.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	requestBody.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	newAnimal := bson.M{
		"_id":    primitive.NewObjectID().Hex(),
		"animal": requestBody,
		"__v":    0,
	}

	_, err := a.DB.InsertOne(context.Background(), newAnimal)
	if err != nil {
		config.ErrorStatus("failed to create animal", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Animal sighting created successfully",
		"animal":  newAnimal,
	})
}

// UpdateAnimalByIDHandler updates an animal sighting by ID
func (a Animal) UpdateAnimalByIDHandler(w http.ResponseWriter, r *http.Request) {
	animalID := mux.Vars(r)["animal_id"]

	var requestBody map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	aID, err := primitive.ObjectIDFromHex(animalID)
	if err != nil {
		config.ErrorStatus("invalid animal ID", http.StatusBadRequest, w, err)
		return
	}

	requestBody["updatedAt"] = primitive.NewDateTimeFromTime(time.Now())

	updateFields := bson.M{}
	for key, value := range requestBody {
		updateFields["animal."+key] = value
	}

	update := bson.M{
		"$set": updateFields,
	}

	filter := bson.M{"_id": aID.Hex()}
	_, err = a.DB.UpdateOne(context.Background(), filter, update)
	if err != nil {
		config.ErrorStatus("failed to update animal", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Animal sighting updated successfully",
	})
}

// DeleteAnimalByIDHandler deletes an animal sighting by ID
func (a Animal) DeleteAnimalByIDHandler(w http.ResponseWriter, r *http.Request) {
	animalID := mux.Vars(r)["animal_id"]

	aID, err := primitive.ObjectIDFromHex(animalID)
	if err != nil {
		config.ErrorStatus("invalid animal ID", http.StatusBadRequest, w, err)
		return
	}

	filter := bson.M{"_id": aID.Hex()}
	_, err = a.DB.DeleteOne(context.Background(), filter)
	if err != nil {
		config.ErrorStatus("failed to delete animal", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Animal sighting deleted successfully",
	})
}
