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
	"golang.org/x/crypto/bcrypt"

	"github.com/forestapp/wildpark-api/config"
	"github.com/forestapp/wildpark-api/databases"
	"github.com/forestapp/wildpark-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerTokenRequest struct {
	Token string `json:"token"`
}

// UserCreateHandler registers a new user account
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(requestBody.Email))
	if email == "" || requestBody.Password == "" {
		config.ErrorStatus("email and password required", http.StatusBadRequest, w, fmt.Errorf("missing credentials"))
		return
	}
	switch requestBody.Role {
	case models.RoleOfficer, models.RoleManager, "visitor", "":
	default:
		config.ErrorStatus("invalid role", http.StatusBadRequest, w, fmt.Errorf("role must be officer, manager or visitor"))
		return
	}
	if requestBody.Role == "" {
		requestBody.Role = "visitor"
	}

	count, err := u.DB.CountDocuments(context.Background(), bson.M{"user.email": email})
	if err != nil {
		config.ErrorStatus("failed to check existing email", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email already registered", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(requestBody.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	details := models.UserDetails{
		Name:      requestBody.Name,
		Email:     email,
		Password:  string(hash),
		Role:      requestBody.Role,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
		UpdatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}

	userID := primitive.NewObjectID().Hex()
	newUser := bson.M{
		"_id":  userID,
		"user": details,
		"__v":  0,
	}

	_, err = u.DB.InsertOne(context.Background(), newUser)
	if err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User created successfully",
		"_id":     userID,
		"email":   email,
		"role":    requestBody.Role,
	})
}

// UserHandler returns a user by ID. The password hash is blanked out before
// the record leaves the API.
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", userID)

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := u.DB.FindOne(context.Background(), bson.M{"_id": uID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}
	dbResp.Details.Password = ""

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UsersHandler returns all users, optionally filtered by role
func (u User) UsersHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	filter := bson.M{}
	if role := r.URL.Query().Get("role"); role != "" {
		filter["user.role"] = role
	}

	dbResp, err := u.DB.Find(context.TODO(), filter, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get users", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.User{}
	}
	for i := range dbResp {
		dbResp[i].Details.Password = ""
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RegisterPushTokenHandler stores the device's FCM registration token on the
// user record. The write goes to the primary token slot; the legacy slots are
// left alone so older app builds keep working.
func (u User) RegisterPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	var requestBody registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if requestBody.Token == "" {
		config.ErrorStatus("token is required", http.StatusBadRequest, w, fmt.Errorf("missing token"))
		return
	}

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid user ID", http.StatusBadRequest, w, err)
		return
	}

	update := bson.M{
		"$set": bson.M{
			"user.token":     requestBody.Token,
			"user.updatedAt": primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	_, err = u.DB.UpdateOne(context.Background(), bson.M{"_id": uID.Hex()}, update)
	if err != nil {
		config.ErrorStatus("failed to register push token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Push token registered successfully",
	})
}
