package databases

// go generate: mockery --name IncidentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/forestapp/wildpark-api/models"
)

const incidentCollectionName = "incidents"

// IncidentDatabase contains the methods to use with the incident database
type IncidentDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Incident, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error)
	InsertOne(ctx context.Context, document interface{}) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type incidentDatabase struct {
	db DatabaseHelper
}

// NewIncidentDatabase initializes a new instance of incident database with the provided db connection
func NewIncidentDatabase(db DatabaseHelper) IncidentDatabase {
	return &incidentDatabase{
		db: db,
	}
}

func (i *incidentDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Incident, error) {
	incident := &models.Incident{}
	err := i.db.Collection(incidentCollectionName).FindOne(ctx, filter).Decode(incident)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (i *incidentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error) {
	var incidents []models.Incident
	cursor, err := i.db.Collection(incidentCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cursor.Decode(&incidents)
	if err != nil {
		return nil, err
	}
	return incidents, nil
}

func (i *incidentDatabase) InsertOne(ctx context.Context, document interface{}) (InsertOneResultHelper, error) {
	res, err := i.db.Collection(incidentCollectionName).InsertOne(ctx, document)
	return res, err
}

func (i *incidentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	res, err := i.db.Collection(incidentCollectionName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (i *incidentDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return i.db.Collection(incidentCollectionName).DeleteOne(ctx, filter)
}
