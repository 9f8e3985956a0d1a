package store

import (
	"context"

	"github.com/kevinaaaquil/bookworm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListTutorials returns tutorials newest first.
func (db *DB) ListTutorials(ctx context.Context) ([]models.Tutorial, error) {
	cur, err := db.Tutorials().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Tutorial
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (db *DB) InsertTutorial(ctx context.Context, t *models.Tutorial) (primitive.ObjectID, error) {
	res, err := db.Tutorials().InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) DeleteTutorial(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Tutorials().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
