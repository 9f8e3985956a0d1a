package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kevinaaaquil/bookworm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookFilter selects books by free-text search over title/author and by genre.
type BookFilter struct {
	Search string
	Genres []string
}

// Query renders the filter as a Mongo query document. Search text is matched
// literally and case-insensitively.
func (f BookFilter) Query() bson.M {
	q := bson.M{}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"author": pattern},
		}
	}
	if len(f.Genres) > 0 {
		q["genre"] = bson.M{"$in": f.Genres}
	}
	return q
}

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) AllBooks(ctx context.Context) ([]models.Book, error) {
	return db.findBooks(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": -1}))
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err != nil {
		return nil, notFound(err)
	}
	return &book, nil
}

// BooksByIDs returns the books with the given ids in _id order.
func (db *DB) BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return db.findBooks(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.M{"_id": 1}))
}

// BooksInGenres returns books in any of the genres, excluding the given ids.
func (db *DB) BooksInGenres(ctx context.Context, genres []string, exclude []primitive.ObjectID) ([]models.Book, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	q := bson.M{"genre": bson.M{"$in": genres}}
	if len(exclude) > 0 {
		q["_id"] = bson.M{"$nin": exclude}
	}
	return db.findBooks(ctx, q, options.Find().SetSort(bson.M{"_id": 1}))
}

// BooksExcluding returns up to limit books whose ids are not in exclude.
func (db *DB) BooksExcluding(ctx context.Context, exclude []primitive.ObjectID, limit int) ([]models.Book, error) {
	q := bson.M{}
	if len(exclude) > 0 {
		q["_id"] = bson.M{"$nin": exclude}
	}
	return db.findBooks(ctx, q, options.Find().SetSort(bson.M{"_id": 1}).SetLimit(int64(limit)))
}

// FilterBooks returns one page of books matching f. limit <= 0 returns all matches.
func (db *DB) FilterBooks(ctx context.Context, f BookFilter, skip, limit int) ([]models.Book, error) {
	opts := options.Find().SetSort(bson.M{"_id": 1})
	if skip > 0 {
		opts.SetSkip(int64(skip))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return db.findBooks(ctx, f.Query(), opts)
}

func (db *DB) CountBooks(ctx context.Context, f BookFilter) (int64, error) {
	return db.Books().CountDocuments(ctx, f.Query())
}

func (db *DB) findBooks(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook replaces the editable fields of a book.
func (db *DB) UpdateBook(ctx context.Context, id primitive.ObjectID, book *models.Book) error {
	update := bson.M{
		"title":       book.Title,
		"author":      book.Author,
		"genre":       book.Genre,
		"coverImage":  book.CoverImage,
		"description": book.Description,
		"isbn":        book.ISBN,
	}
	res, err := db.Books().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBook removes a book and the reviews and shelf entries that reference it.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Books().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := db.Reviews().DeleteMany(ctx, bson.M{"bookId": id}); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	if _, err := db.Shelves().DeleteMany(ctx, bson.M{"bookId": id}); err != nil {
		return fmt.Errorf("delete shelf entries: %w", err)
	}
	return nil
}

func (db *DB) BooksCount(ctx context.Context) (int64, error) {
	return db.Books().CountDocuments(ctx, bson.M{})
}

// BooksPerGenre counts books grouped by genre, most populated first.
func (db *DB) BooksPerGenre(ctx context.Context) ([]models.GenreCount, error) {
	pipeline := bson.A{
		bson.M{"$group": bson.M{"_id": "$genre", "count": bson.M{"$sum": 1}}},
		bson.M{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
	}
	cur, err := db.Books().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.GenreCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
