package store

import (
	"context"

	"github.com/kevinaaaquil/bookworm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) ReviewExists(ctx context.Context, userID, bookID primitive.ObjectID) (bool, error) {
	err := db.Reviews().FindOne(ctx, bson.M{"userId": userID, "bookId": bookID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertReview stores a review. A second review for the same (user, book)
// trips the unique index and yields ErrDuplicate.
func (db *DB) InsertReview(ctx context.Context, r *models.Review) (primitive.ObjectID, error) {
	res, err := db.Reviews().InsertOne(ctx, r)
	if err != nil {
		return primitive.NilObjectID, duplicate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) ListReviews(ctx context.Context) ([]models.Review, error) {
	return db.findReviews(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (db *DB) ApprovedReviewsForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.Review, error) {
	q := bson.M{"bookId": bookID, "status": models.ReviewApproved}
	return db.findReviews(ctx, q, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (db *DB) RecentApprovedReviews(ctx context.Context, limit int) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(int64(limit))
	return db.findReviews(ctx, bson.M{"status": models.ReviewApproved}, opts)
}

func (db *DB) findReviews(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Review, error) {
	cur, err := db.Reviews().Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Review
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (db *DB) PendingReviewsCount(ctx context.Context) (int64, error) {
	return db.Reviews().CountDocuments(ctx, bson.M{"status": models.ReviewPending})
}

func (db *DB) UserReviewsCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return db.Reviews().CountDocuments(ctx, bson.M{"userId": userID})
}

// ApproveReview marks a review Approved and returns the updated document.
func (db *DB) ApproveReview(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := db.Reviews().FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.ReviewApproved}}, opts).Decode(&r)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (db *DB) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Reviews().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UserAverageRating is the mean rating over all of a user's reviews.
// ok is false when the user has written none.
func (db *DB) UserAverageRating(ctx context.Context, userID primitive.ObjectID) (avg float64, ok bool, err error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"userId": userID}},
		bson.M{"$group": bson.M{"_id": nil, "avg": bson.M{"$avg": "$rating"}}},
	}
	cur, err := db.Reviews().Aggregate(ctx, pipeline)
	if err != nil {
		return 0, false, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].Avg, true, nil
}

// RatingStats groups approved reviews of the given books with rating >=
// minRating and returns the average and count per book.
func (db *DB) RatingStats(ctx context.Context, bookIDs []primitive.ObjectID, minRating float64) (map[primitive.ObjectID]models.RatingStats, error) {
	out := make(map[primitive.ObjectID]models.RatingStats, len(bookIDs))
	if len(bookIDs) == 0 {
		return out, nil
	}
	match := bson.M{
		"bookId": bson.M{"$in": bookIDs},
		"status": models.ReviewApproved,
	}
	if minRating > 0 {
		match["rating"] = bson.M{"$gte": minRating}
	}
	pipeline := bson.A{
		bson.M{"$match": match},
		bson.M{"$group": bson.M{
			"_id":         "$bookId",
			"avgRating":   bson.M{"$avg": "$rating"},
			"reviewCount": bson.M{"$sum": 1},
		}},
	}
	cur, err := db.Reviews().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []models.RatingStats
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.BookID] = r
	}
	return out, nil
}
