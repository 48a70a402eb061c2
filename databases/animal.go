package databases

// go generate: mockery --name AnimalDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/forestapp/wildpark-api/models"
)

const animalCollectionName = "animals"

// AnimalDatabase contains the methods to use with the animal census database
type AnimalDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Animal, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Animal, error)
	InsertOne(ctx context.Context, document interface{}) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}) (CursorHelper, error)
}

type animalDatabase struct {
	db DatabaseHelper
}

// NewAnimalDatabase initializes a new instance of animal database with the provided db connection
func NewAnimalDatabase(db DatabaseHelper) AnimalDatabase {
	return &animalDatabase{
		db: db,
	}
}

func (a *animalDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Animal, error) {
	animal := &models.Animal{}
	err := a.db.Collection(animalCollectionName).FindOne(ctx, filter).Decode(animal)
	if err != nil {
		return nil, err
	}
	return animal, nil
}

func (a *animalDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Animal, error) {
	var animals []models.Animal
	cursor, err := a.db.Collection(animalCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cursor.Decode(&animals)
	if err != nil {
		return nil, err
	}
	return animals, nil
}

func (a *animalDatabase) InsertOne(ctx context.Context, document interface{}) (InsertOneResultHelper, error) {
	res, err := a.db.Collection(animalCollectionName).InsertOne(ctx, document)
	return res, err
}

func (a *animalDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	res, err := a.db.Collection(animalCollectionName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *animalDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return a.db.Collection(animalCollectionName).DeleteOne(ctx, filter)
}

func (a *animalDatabase) Aggregate(ctx context.Context, pipeline interface{}) (CursorHelper, error) {
	return a.db.Collection(animalCollectionName).Aggregate(ctx, pipeline)
}
