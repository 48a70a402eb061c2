package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/forestapp/wildpark-api/api/handlers"
	"github.com/forestapp/wildpark-api/databases"
	mocksdb "github.com/forestapp/wildpark-api/databases/mocks"
	"github.com/forestapp/wildpark-api/models"
)

func TestAnimal_AnimalByIDHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/animal/1234", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"animal_id": "1234"})
	req.Header.Set("Authorization", "Bearer abc123")

	a := handlers.Animal{
		DB: databases.NewAnimalDatabase(&mocksdb.DatabaseHelper{}),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.AnimalByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "failed to get objectID from Hex", Error: "the provided hex string is not a valid ObjectID"}}
	b, _ := expected.MarshalJSON()
	if rr.Body.String() != string(b) {
		t.Errorf("handler returned unexpected body: \ngot: %v \nwant: %v", rr.Body.String(), expected)
	}
}

func TestAnimal_AnimalsByParkIDHandlerEmptyResponse(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/animals/park/5fc51f58c72ff10004dca382", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"park_id": "5fc51f58c72ff10004dca382"})
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}
	cursorHelper = &mocksdb.CursorHelper{}

	cursorHelper.(*mocksdb.CursorHelper).On("Decode", mock.Anything).Return(nil)
	conn.(*mocksdb.CollectionHelper).On("Find", mock.Anything, mock.Anything).Return(cursorHelper, nil)
	db.(*mocksdb.DatabaseHelper).On("Collection", "animals").Return(conn)

	a := handlers.Animal{
		DB: databases.NewAnimalDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.AnimalsByParkIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestAnimal_AnimalCensusHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/animals/census", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}
	cursorHelper = &mocksdb.CursorHelper{}

	cursorHelper.(*mocksdb.CursorHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.CensusEntry)
		*arg = []models.CensusEntry{
			{Species: "Impala", Total: 120, Sightings: 14},
			{Species: "African Elephant", Total: 43, Sightings: 9},
		}
	})
	conn.(*mocksdb.CollectionHelper).On("Aggregate", mock.Anything, mock.Anything).Return(cursorHelper, nil)
	db.(*mocksdb.DatabaseHelper).On("Collection", "animals").Return(conn)

	a := handlers.Animal{
		DB: databases.NewAnimalDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.AnimalCensusHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []models.CensusEntry
	err = json.Unmarshal(rr.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Impala", got[0].Species)
	assert.Equal(t, 120, got[0].Total)
}

func TestAnimal_AnimalCensusHandlerAggregateError(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/animals/census", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}

	conn.(*mocksdb.CollectionHelper).On("Aggregate", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))
	db.(*mocksdb.DatabaseHelper).On("Collection", "animals").Return(conn)

	a := handlers.Animal{
		DB: databases.NewAnimalDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.AnimalCensusHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestAnimal_CreateAnimalHandlerDefaultsCount(t *testing.T) {
	body := map[string]interface{}{
		"species":  "Impala",
		"parkID":   "5fc51f58c72ff10004dca382",
		"location": "South Plains",
	}
	b, _ := json.Marshal(body)

	req, err := http.NewRequest("POST", "/api/v1/animal", bytes.NewBuffer(b))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}

	var inserted bson.M
	conn.(*mocksdb.CollectionHelper).On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(bson.M)
	})
	db.(*mocksdb.DatabaseHelper).On("Collection", "animals").Return(conn)

	a := handlers.Animal{
		DB: databases.NewAnimalDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.CreateAnimalHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	details := inserted["animal"].(models.AnimalDetails)
	assert.Equal(t, 1, details.Count)
}

func TestAnimal_CreateAnimalHandlerMissingSpecies(t *testing.T) {
	body := map[string]interface{}{
		"location": "South Plains",
	}
	b, _ := json.Marshal(body)

	req, err := http.NewRequest("POST", "/api/v1/animal", bytes.NewBuffer(b))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")

	a := handlers.Animal{
		DB: databases.NewAnimalDatabase(&mocksdb.DatabaseHelper{}),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.CreateAnimalHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
