package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/forestapp/wildpark-api/config"
	"github.com/forestapp/wildpark-api/databases"
	"github.com/forestapp/wildpark-api/models"
	"github.com/forestapp/wildpark-api/recommender"
)

// ParkModel is the slice of the recommendation engine the park handlers need:
// new parks become training rows and trigger a background retrain.
type ParkModel interface {
	AppendTrainingRow(features map[string]int, parkName string) error
	Retrain(ctx context.Context) error
}

// Park exported for testing purposes
type Park struct {
	DB    databases.ParkDatabase
	Model ParkModel
}

// ParkHandler returns all parks
func (p Park) ParkHandler(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	filter := bson.M{}
	if region != "" {
		filter["park.region"] = region
	}

	dbResp, err := p.DB.Find(context.TODO(), filter)
	if err != nil {
		config.ErrorStatus("failed to get parks", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Park{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ParkByIDHandler returns a park by ID
func (p Park) ParkByIDHandler(w http.ResponseWriter, r *http.Request) {
	parkID := mux.Vars(r)["park_id"]

	zap.S().Debugf("park_id: %v", parkID)

	pID, err := primitive.ObjectIDFromHex(parkID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := p.DB.FindOne(context.Background(), bson.M{"_id": pID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to get park by ID", http.StatusNotFound, w, err)
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

// CreateParkHandler creates a new park. The park's attributes also become a
// training row for the recommendation model, followed by a background
// retrain; model failures are logged and never fail the request.
func (p Park) CreateParkHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody models.ParkDetails
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if strings.TrimSpace(requestBody.Name) == "" {
		config.ErrorStatus("park name is required", http.StatusBadRequest, w, fmt.Errorf("missing name"))
		return
	}

	requestBody.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	requestBody.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	newPark := bson.M{
		"_id":  primitive.NewObjectID().Hex(),
		"park": requestBody,
		"__v":  0,
	}

	_, err := p.DB.InsertOne(context.Background(), newPark)
	if err != nil {
		config.ErrorStatus("failed to create park", http.StatusInternalServerError, w, err)
		return
	}

	if p.Model != nil {
		features := parkFeatures(requestBody)
		if err := p.Model.AppendTrainingRow(features, requestBody.Name); err != nil {
			zap.S().Warnw("failed to append park training row", "park", requestBody.Name, "error", err)
		} else {
			go func() {
				if err := p.Model.Retrain(context.Background()); err != nil {
					zap.S().Warnw("failed to retrain recommendation model", "error", err)
				}
			}()
		}
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Park created successfully",
		"park":    newPark,
	})
}

// UpdateParkByIDHandler updates a park by ID
func (p Park) UpdateParkByIDHandler(w http.ResponseWriter, r *http.Request) {
	parkID := mux.Vars(r)["park_id"]

	var requestBody map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	pID, err := primitive.ObjectIDFromHex(parkID)
	if err != nil {
		config.ErrorStatus("invalid park ID", http.StatusBadRequest, w, err)
		return
	}

	requestBody["updatedAt"] = primitive.NewDateTimeFromTime(time.Now())

	updateFields := bson.M{}
	for key, value := range requestBody {
		updateFields["park."+key] = value
	}

	update := bson.M{
		"$set": updateFields,
	}

	filter := bson.M{"_id": pID.Hex()}
	_, err = p.DB.UpdateOne(context.Background(), filter, update)
	if err != nil {
		config.ErrorStatus("failed to update park", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Park updated successfully",
	})
}

// DeleteParkByIDHandler deletes a park by ID
func (p Park) DeleteParkByIDHandler(w http.ResponseWriter, r *http.Request) {
	parkID := mux.Vars(r)["park_id"]

	pID, err := primitive.ObjectIDFromHex(parkID)
	if err != nil {
		config.ErrorStatus("invalid park ID", http.StatusBadRequest, w, err)
		return
	}

	filter := bson.M{"_id": pID.Hex()}
	_, err = p.DB.DeleteOne(context.Background(), filter)
	if err != nil {
		config.ErrorStatus("failed to delete park", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Park deleted successfully",
	})
}

// parkFeatures maps a park's terrain, activity and species attributes onto
// the model's 0/1 feature columns. Unknown attributes are ignored.
func parkFeatures(details models.ParkDetails) map[string]int {
	known := make(map[string]struct{}, len(recommender.FeatureOrder))
	for _, f := range recommender.FeatureOrder {
		known[f] = struct{}{}
	}

	features := make(map[string]int)
	for _, group := range [][]string{details.Terrain, details.Activities, details.Species} {
		for _, attr := range group {
			key := strings.ToLower(strings.TrimSpace(attr))
			if _, ok := known[key]; ok {
				features[key] = 1
			}
		}
	}
	return features
}
