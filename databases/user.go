package databases

// go generate: mockery --name UserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/forestapp/wildpark-api/models"
)

const userCollectionName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.User, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error)
	InsertOne(ctx context.Context, document interface{}) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)

	UsersByRole(ctx context.Context, role string) ([]models.User, error)
	AllUsers(ctx context.Context) ([]models.User, error)
	UpdateUserFields(ctx context.Context, id string, fields map[string]interface{}) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindOne(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userCollectionName).FindOne(ctx, filter).Decode(user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error) {
	var users []models.User
	cursor, err := u.db.Collection(userCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cursor.Decode(&users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *userDatabase) InsertOne(ctx context.Context, document interface{}) (InsertOneResultHelper, error) {
	res, err := u.db.Collection(userCollectionName).InsertOne(ctx, document)
	return res, err
}

func (u *userDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	res, err := u.db.Collection(userCollectionName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *userDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	count, err := u.db.Collection(userCollectionName).CountDocuments(ctx, filter, opts...)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UsersByRole returns every user record whose role matches exactly
func (u *userDatabase) UsersByRole(ctx context.Context, role string) ([]models.User, error) {
	return u.Find(ctx, bson.M{"user.role": role})
}

// AllUsers returns every user record in the collection
func (u *userDatabase) AllUsers(ctx context.Context) ([]models.User, error) {
	return u.Find(ctx, bson.M{})
}

// UpdateUserFields applies a merge-style $set of the given fields to a single
// user document. A nil field value clears that field without touching others.
func (u *userDatabase) UpdateUserFields(ctx context.Context, id string, fields map[string]interface{}) error {
	_, err := u.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	return err
}
