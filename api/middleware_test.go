package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/forestapp/wildpark-api/api"
	"github.com/forestapp/wildpark-api/databases"
	mocksdb "github.com/forestapp/wildpark-api/databases/mocks"
	"github.com/forestapp/wildpark-api/models"
)

func middlewareWithUser(t *testing.T, user models.User) api.MiddlewareDB {
	t.Helper()

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}
	cursorHelper = &mocksdb.CursorHelper{}

	cursorHelper.(*mocksdb.CursorHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.User)
		*arg = []models.User{user}
	})
	conn.(*mocksdb.CollectionHelper).On("Find", mock.Anything, mock.Anything).Return(cursorHelper, nil)
	db.(*mocksdb.DatabaseHelper).On("Collection", "users").Return(conn)

	return api.MiddlewareDB{DB: databases.NewUserDatabase(db)}
}

func TestValidateUser(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	m := middlewareWithUser(t, models.User{
		ID: "5fc51f58c72ff10004dca382",
		Details: models.UserDetails{
			Email:    "officer@example.com",
			Password: string(hash),
		},
	})

	req, err := http.NewRequest("GET", "/api/v1/incidents", nil)
	if err != nil {
		t.Fatal(err)
	}

	info, err := m.ValidateUser(context.Background(), req, "officer@example.com", "correct-horse")
	assert.NoError(t, err)
	assert.Equal(t, "officer@example.com", info.UserName())
	// the auth identity carries the stored user's real ID
	assert.Equal(t, "5fc51f58c72ff10004dca382", info.ID())
}

func TestValidateUserWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	m := middlewareWithUser(t, models.User{
		ID: "5fc51f58c72ff10004dca382",
		Details: models.UserDetails{
			Email:    "officer@example.com",
			Password: string(hash),
		},
	})

	req, err := http.NewRequest("GET", "/api/v1/incidents", nil)
	if err != nil {
		t.Fatal(err)
	}

	info, err := m.ValidateUser(context.Background(), req, "officer@example.com", "battery-staple")
	assert.Error(t, err)
	assert.Nil(t, info)
}
