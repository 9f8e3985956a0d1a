package store

import (
	"context"
	"fmt"

	"github.com/kevinaaaquil/bookworm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UsersCount returns the number of documents in the users collection.
func (db *DB) UsersCount(ctx context.Context) (int64, error) {
	return db.Users().CountDocuments(ctx, bson.M{})
}

// AdminsCount returns the number of users with role Admin.
func (db *DB) AdminsCount(ctx context.Context) (int64, error) {
	return db.Users().CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
}

// UserByEmail returns nil, nil when no user has that email.
func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user; a taken email yields ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, duplicate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UsersByIDs returns the users with the given ids, password hashes excluded.
func (db *DB) UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return db.findUsers(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	return db.findUsers(ctx, bson.M{})
}

func (db *DB) findUsers(ctx context.Context, q bson.M) ([]models.User, error) {
	opts := options.Find().SetSort(bson.M{"joiningDate": 1}).SetProjection(bson.M{"password": 0})
	cur, err := db.Users().Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (db *DB) UpdateUserRole(ctx context.Context, id primitive.ObjectID, role string) error {
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user together with their shelf entries and reviews.
func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Users().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := db.Shelves().DeleteMany(ctx, bson.M{"userId": id}); err != nil {
		return fmt.Errorf("delete shelf entries: %w", err)
	}
	if _, err := db.Reviews().DeleteMany(ctx, bson.M{"userId": id}); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	return nil
}
