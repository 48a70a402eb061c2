package databases

// go generate: mockery --name ParkDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/forestapp/wildpark-api/models"
)

const parkCollectionName = "parks"

// ParkDatabase contains the methods to use with the park database
type ParkDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Park, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Park, error)
	InsertOne(ctx context.Context, document interface{}) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type parkDatabase struct {
	db DatabaseHelper
}

// NewParkDatabase initializes a new instance of park database with the provided db connection
func NewParkDatabase(db DatabaseHelper) ParkDatabase {
	return &parkDatabase{
		db: db,
	}
}

func (p *parkDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Park, error) {
	park := &models.Park{}
	err := p.db.Collection(parkCollectionName).FindOne(ctx, filter).Decode(park)
	if err != nil {
		return nil, err
	}
	return park, nil
}

func (p *parkDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Park, error) {
	var parks []models.Park
	cursor, err := p.db.Collection(parkCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cursor.Decode(&parks)
	if err != nil {
		return nil, err
	}
	return parks, nil
}

func (p *parkDatabase) InsertOne(ctx context.Context, document interface{}) (InsertOneResultHelper, error) {
	res, err := p.db.Collection(parkCollectionName).InsertOne(ctx, document)
	return res, err
}

func (p *parkDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	res, err := p.db.Collection(parkCollectionName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *parkDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return p.db.Collection(parkCollectionName).DeleteOne(ctx, filter)
}
