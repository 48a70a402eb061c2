package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/forestapp/wildpark-api/config"
	"github.com/forestapp/wildpark-api/databases"
	"github.com/forestapp/wildpark-api/models"
)

// AlertDispatcher sends the push alert for a newly created incident. The
// send is fire-and-forget; Dispatch returns before delivery completes.
type AlertDispatcher interface {
	Dispatch(incidentID string, details models.IncidentDetails)
}

// Incident exported for testing purposes
type Incident struct {
	DB         databases.IncidentDatabase
	Dispatcher AlertDispatcher
	Feed       *FeedHub
}

// IncidentHandler returns all incidents, newest first
func (i Incident) IncidentHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)
	dbResp, err := i.DB.Find(context.TODO(), bson.D{}, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.M{"incident.reportedAt": -1},
	})
	if err != nil {
		config.ErrorStatus("failed to get incidents", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements inside models.Incident exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Incident{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// IncidentByIDHandler returns an incident by ID
func (i Incident) IncidentByIDHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	zap.S().Debugf("incident_id: %v", incidentID)

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := i.DB.FindOne(context.Background(), bson.M{"_id": iID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to get incident by ID", http.StatusNotFound, w, err)
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

// IncidentsByParkIDHandler returns all incidents reported inside the given park
func (i Incident) IncidentsByParkIDHandler(w http.ResponseWriter, r *http.Request) {
	parkID := mux.Vars(r)["park_id"]
	status := r.URL.Query().Get("status")
	zap.S().Debugf("park_id: '%v'", parkID)

	var filter bson.M
	if parkID != "" && parkID != "null" && parkID != "undefined" {
		filter = bson.M{
			"incident.parkID": parkID,
		}
		if status != "" {
			filter["incident.status"] = status
		}
	}

	dbResp, err := i.DB.Find(context.TODO(), filter)
	if err != nil {
		config.ErrorStatus("failed to get incidents with park id", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Incident{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateIncidentHandler creates a new poaching incident report. The officer
// alert and the live feed broadcast both happen after the write and never
// affect the response.
func (i Incident) CreateIncidentHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody models.IncidentDetails
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if strings.TrimSpace(requestBody.Species) == "" {
		config.ErrorStatus("species is required", http.StatusBadRequest, w, fmt.Errorf("missing species"))
		return
	}
	switch requestBody.Severity {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
	default:
		config.ErrorStatus("invalid severity", http.StatusBadRequest, w, fmt.Errorf("severity must be one of Low, Medium, High"))
		return
	}

	if requestBody.Status == "" {
		requestBody.Status = "open"
	}
	if requestBody.ReportedAt == "" {
		requestBody.ReportedAt = time.Now().UTC().Format(time.RFC3339)
	}
	requestBody.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	requestBody.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	incidentID := primitive.NewObjectID().Hex()
	newIncident := bson.M{
		"_id":      incidentID,
		"incident": requestBody,
		"__v":      0,
	}

	_, err := i.DB.InsertOne(context.Background(), newIncident)
	if err != nil {
		config.ErrorStatus("failed to create incident", http.StatusInternalServerError, w, err)
		return
	}

	if i.Dispatcher != nil {
		i.Dispatcher.Dispatch(incidentID, requestBody)
	}
	if i.Feed != nil {
		i.Feed.BroadcastIncident(models.Incident{ID: incidentID, Details: requestBody})
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "Incident created successfully",
		"incident": newIncident,
	})
}

// UpdateIncidentByIDHandler updates an incident by ID
func (i Incident) UpdateIncidentByIDHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	var requestBody map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("invalid incident ID", http.StatusBadRequest, w, err)
		return
	}

	// Add the updatedAt field to the requestBody
	requestBody["updatedAt"] = primitive.NewDateTimeFromTime(time.Now())

	// Prefix all keys in requestBody with "incident."
	updateFields := bson.M{}
	for key, value := range requestBody {
		updateFields["incident."+key] = value
	}

	update := bson.M{
		"$set": updateFields,
	}

	filter := bson.M{"_id": iID.Hex()}
	_, err = i.DB.UpdateOne(context.Background(), filter, update)
	if err != nil {
		config.ErrorStatus("failed to update incident", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Incident updated successfully",
	})
}

// DeleteIncidentByIDHandler deletes an incident by ID
func (i Incident) DeleteIncidentByIDHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("invalid incident ID", http.StatusBadRequest, w, err)
		return
	}

	filter := bson.M{"_id": iID.Hex()}
	_, err = i.DB.DeleteOne(context.Background(), filter)
	if err != nil {
		config.ErrorStatus("failed to delete incident", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Incident deleted successfully",
	})
}
