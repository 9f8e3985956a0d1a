package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookworm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) ShelfEntry(ctx context.Context, userID, bookID primitive.ObjectID) (*models.ShelfEntry, error) {
	var e models.ShelfEntry
	err := db.Shelves().FindOne(ctx, bson.M{"userId": userID, "bookId": bookID}).Decode(&e)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// SaveShelfEntry upserts the entry keyed by (userId, bookId).
func (db *DB) SaveShelfEntry(ctx context.Context, e *models.ShelfEntry) error {
	set := bson.M{
		"shelf":        e.Shelf,
		"progress":     e.Progress,
		"dateAdded":    e.DateAdded,
		"dateStarted":  e.DateStarted,
		"dateFinished": e.DateFinished,
		"userRating":   e.UserRating,
	}
	filter := bson.M{"userId": e.UserID, "bookId": e.BookID}
	_, err := db.Shelves().UpdateOne(ctx, filter, bson.M{"$set": set}, options.Update().SetUpsert(true))
	return duplicate(err)
}

func (db *DB) DeleteShelfEntry(ctx context.Context, userID, bookID primitive.ObjectID) error {
	res, err := db.Shelves().DeleteOne(ctx, bson.M{"userId": userID, "bookId": bookID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UserShelfEntries returns a user's entries, optionally restricted to one shelf.
func (db *DB) UserShelfEntries(ctx context.Context, userID primitive.ObjectID, shelf string) ([]models.ShelfEntry, error) {
	q := bson.M{"userId": userID}
	if shelf != "" {
		q["shelf"] = shelf
	}
	return db.findShelfEntries(ctx, q, options.Find().SetSort(bson.M{"bookId": 1}))
}

// FinishedSince returns a user's Read entries finished at or after since.
func (db *DB) FinishedSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.ShelfEntry, error) {
	q := bson.M{"userId": userID, "shelf": models.ShelfRead, "dateFinished": bson.M{"$gte": since}}
	return db.findShelfEntries(ctx, q, nil)
}

func (db *DB) RecentShelfEntries(ctx context.Context, limit int) ([]models.ShelfEntry, error) {
	opts := options.Find().SetSort(bson.M{"dateAdded": -1}).SetLimit(int64(limit))
	return db.findShelfEntries(ctx, bson.M{}, opts)
}

func (db *DB) findShelfEntries(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.ShelfEntry, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := db.Shelves().Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.ShelfEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserLibrary returns a user's shelf entries joined with their books, most
// recently added first.
func (db *DB) UserLibrary(ctx context.Context, userID primitive.ObjectID) ([]models.LibraryEntry, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"userId": userID}},
		bson.M{"$sort": bson.M{"dateAdded": -1}},
		bson.M{"$lookup": bson.M{
			"from":         "books",
			"localField":   "bookId",
			"foreignField": "_id",
			"as":           "book",
		}},
		bson.M{"$unwind": bson.M{"path": "$book", "preserveNullAndEmptyArrays": true}},
	}
	cur, err := db.Shelves().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.LibraryEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ShelfCounts counts shelf entries (any shelf, any user) per book.
func (db *DB) ShelfCounts(ctx context.Context, bookIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := make(map[primitive.ObjectID]int, len(bookIDs))
	if len(bookIDs) == 0 {
		return out, nil
	}
	pipeline := bson.A{
		bson.M{"$match": bson.M{"bookId": bson.M{"$in": bookIDs}}},
		bson.M{"$group": bson.M{"_id": "$bookId", "shelfCount": bson.M{"$sum": 1}}},
	}
	cur, err := db.Shelves().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []models.ShelfCount
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.BookID] = r.ShelfCount
	}
	return out, nil
}
