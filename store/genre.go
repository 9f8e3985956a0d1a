package store

import (
	"context"

	"github.com/kevinaaaquil/bookworm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (db *DB) ListGenres(ctx context.Context) ([]models.Genre, error) {
	cur, err := db.Genres().Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var genres []models.Genre
	if err := cur.All(ctx, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

func (db *DB) InsertGenre(ctx context.Context, g *models.Genre) (primitive.ObjectID, error) {
	res, err := db.Genres().InsertOne(ctx, g)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UpdateGenre(ctx context.Context, id primitive.ObjectID, g *models.Genre) error {
	set := bson.M{"title": g.Title, "image": g.Image, "description": g.Description}
	res, err := db.Genres().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteGenre(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Genres().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GenresCount(ctx context.Context) (int64, error) {
	return db.Genres().CountDocuments(ctx, bson.M{})
}
