package repository

import (
	"context"
	"time"

	"notemate/model"
	"notemate/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const FeaturedLimit = 6

// noteListProjection keeps list payloads small; author and subject stay so
// they can be populated.
var noteListProjection = bson.M{
	"title": 1, "description": 1, "rating": 1, "downloads": 1, "views": 1,
	"type": 1, "difficulty": 1, "createdAt": 1, "author": 1, "subject": 1,
}

type NotesRepo struct {
	MongoCollection *mongo.Collection
}

func GetNotesRepo(db *mongo.Database) *NotesRepo {
	return &NotesRepo{MongoCollection: db.Collection(NotesCollection)}
}

// noteFilter turns a NoteFilter into an active-only query.
func noteFilter(f model.NoteFilter) bson.M {
	filter := bson.M{}
	if !f.Subject.IsZero() {
		filter["subject"] = f.Subject
	}
	if !f.Author.IsZero() {
		filter["author"] = f.Author
	}
	if f.Difficulty != "" {
		filter["difficulty"] = f.Difficulty
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if f.Featured {
		filter["isFeatured"] = true
	}
	if f.Query != "" {
		filter["$text"] = bson.M{"$search": f.Query}
	}
	return Active(filter)
}

func (r *NotesRepo) Create(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("insert", NotesCollection)
	defer timer.ObserveDuration()

	if note.ID.IsZero() {
		note.ID = primitive.NewObjectID()
	}
	if _, err := r.MongoCollection.InsertOne(ctx, note); err != nil {
		utils.TrackError("database", "note_creation_failed")
		return translate(err, "inserting note")
	}
	return nil
}

func (r *NotesRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Note, error) {
	timer := utils.TrackDBOperation("find", NotesCollection)
	defer timer.ObserveDuration()

	var note model.Note
	if err := r.MongoCollection.FindOne(ctx, Active(bson.M{"_id": id})).Decode(&note); err != nil {
		return nil, translate(err, "finding note")
	}
	return &note, nil
}

// List returns one page of projected notes, newest first, and the total
// matching count. Text queries sort by relevance first.
func (r *NotesRepo) List(ctx context.Context, f model.NoteFilter, page utils.Page) ([]model.Note, int64, error) {
	timer := utils.TrackDBOperation("find", NotesCollection)
	defer timer.ObserveDuration()

	filter := noteFilter(f)
	total, err := r.MongoCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "counting notes")
	}

	projection := bson.M{}
	for k, v := range noteListProjection {
		projection[k] = v
	}
	sort := bson.D{{Key: "createdAt", Value: -1}}
	if f.Query != "" {
		projection["score"] = bson.M{"$meta": "textScore"}
		sort = append(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}, sort...)
	}

	opts := options.Find().
		SetProjection(projection).
		SetSort(sort).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	notes, err := r.find(ctx, filter, opts)
	return notes, total, err
}

// Featured returns up to FeaturedLimit featured notes, best rated first.
func (r *NotesRepo) Featured(ctx context.Context) ([]model.Note, error) {
	timer := utils.TrackDBOperation("find", NotesCollection)
	defer timer.ObserveDuration()

	opts := options.Find().
		SetProjection(noteListProjection).
		SetSort(bson.D{{Key: "rating", Value: -1}}).
		SetLimit(FeaturedLimit)
	return r.find(ctx, noteFilter(model.NoteFilter{Featured: true}), opts)
}

// TitlesByAuthor returns the profile summary of a user's uploaded notes.
func (r *NotesRepo) TitlesByAuthor(ctx context.Context, author primitive.ObjectID) ([]model.Note, error) {
	timer := utils.TrackDBOperation("find", NotesCollection)
	defer timer.ObserveDuration()

	opts := options.Find().
		SetProjection(bson.M{"title": 1, "rating": 1, "downloads": 1, "createdAt": 1}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, Active(bson.M{"author": author}), opts)
}

func (r *NotesRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Note, error) {
	notes := []model.Note{}
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "listing notes")
	}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, translate(err, "decoding notes")
	}
	return notes, nil
}

// modify runs an update against one active note and returns the result.
func (r *NotesRepo) modify(ctx context.Context, filter bson.M, update interface{}, op string) (*model.Note, error) {
	timer := utils.TrackDBOperation("update", NotesCollection)
	defer timer.ObserveDuration()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var note model.Note
	if err := r.MongoCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&note); err != nil {
		if err != mongo.ErrNoDocuments {
			utils.TrackError("database", "note_update_failed")
		}
		return nil, translate(err, op)
	}
	return &note, nil
}

func (r *NotesRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.Note, error) {
	set["updatedAt"] = time.Now().UTC()
	return r.modify(ctx, Active(bson.M{"_id": id}), bson.M{"$set": set}, "updating note")
}

// SoftDelete flips isActive and returns the note as it was. Only the call
// that performed the flip gets a document back, so callers can decrement
// counters exactly once.
func (r *NotesRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) (*model.Note, error) {
	timer := utils.TrackDBOperation("update", NotesCollection)
	defer timer.ObserveDuration()

	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}
	var note model.Note
	err := r.MongoCollection.FindOneAndUpdate(ctx, Active(bson.M{"_id": id}), update).Decode(&note)
	if err != nil {
		return nil, translate(err, "deleting note")
	}
	return &note, nil
}

func (r *NotesRepo) increment(ctx context.Context, id primitive.ObjectID, field string) error {
	timer := utils.TrackDBOperation("update", NotesCollection)
	defer timer.ObserveDuration()

	res, err := r.MongoCollection.UpdateOne(ctx, Active(bson.M{"_id": id}), bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return translate(err, "incrementing note "+field)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotesRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	return r.increment(ctx, id, "views")
}

func (r *NotesRepo) IncrementDownloads(ctx context.Context, id primitive.ObjectID) error {
	return r.increment(ctx, id, "downloads")
}

func (r *NotesRepo) AddFiles(ctx context.Context, id primitive.ObjectID, files []model.FileMeta) (*model.Note, error) {
	update := bson.M{
		"$push": bson.M{"files": bson.M{"$each": files}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.modify(ctx, Active(bson.M{"_id": id}), update, "adding files")
}

// UpsertRating replaces the user's rating and recomputes rating and
// ratingsCount inside the same pipeline update. The rounding matches
// model.RoundRating.
func (r *NotesRepo) UpsertRating(ctx context.Context, id primitive.ObjectID, rating model.Rating) (*model.Note, error) {
	entry := bson.M{
		"user":      rating.User,
		"rating":    rating.Rating,
		"createdAt": rating.CreatedAt,
	}
	if rating.Review != "" {
		entry["review"] = bson.M{"$literal": rating.Review}
	}

	kept := bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$ratings", bson.A{}}},
		"as":    "r",
		"cond":  bson.M{"$ne": bson.A{"$$r.user", rating.User}},
	}}
	rounded := bson.M{"$divide": bson.A{
		bson.M{"$floor": bson.M{"$add": bson.A{
			bson.M{"$multiply": bson.A{bson.M{"$avg": "$ratings.rating"}, 10}},
			0.5,
		}}},
		10,
	}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"ratings": bson.M{"$concatArrays": bson.A{kept, bson.A{entry}}}}}},
		{{Key: "$set", Value: bson.M{
			"ratingsCount": bson.M{"$size": "$ratings"},
			"rating":       rounded,
			"updatedAt":    time.Now().UTC(),
		}}},
	}
	return r.modify(ctx, Active(bson.M{"_id": id}), pipeline, "rating note")
}

// SetReaction puts the user in one reaction set and takes them out of the
// other. add=false only removes from the named set.
func (r *NotesRepo) SetReaction(ctx context.Context, id, user primitive.ObjectID, set string, add bool) (*model.Note, error) {
	other := "dislikes"
	if set == "dislikes" {
		other = "likes"
	}
	update := bson.M{"$pull": bson.M{set: user}}
	if add {
		update = bson.M{
			"$addToSet": bson.M{set: user},
			"$pull":     bson.M{other: user},
		}
	}
	return r.modify(ctx, Active(bson.M{"_id": id}), update, "updating "+set)
}

func (r *NotesRepo) AddComment(ctx context.Context, id primitive.ObjectID, c model.Comment) (*model.Note, error) {
	return r.modify(ctx, Active(bson.M{"_id": id}), bson.M{"$push": bson.M{"comments": c}}, "adding comment")
}

func (r *NotesRepo) UpdateComment(ctx context.Context, id, commentID primitive.ObjectID, text string, at time.Time) (*model.Note, error) {
	filter := Active(bson.M{"_id": id, "comments._id": commentID})
	update := bson.M{"$set": bson.M{"comments.$.text": text, "comments.$.updatedAt": at}}
	return r.modify(ctx, filter, update, "updating comment")
}

func (r *NotesRepo) DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) (*model.Note, error) {
	filter := Active(bson.M{"_id": id, "comments._id": commentID})
	update := bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}}
	return r.modify(ctx, filter, update, "deleting comment")
}

func (r *NotesRepo) AddReply(ctx context.Context, id, commentID primitive.ObjectID, reply model.Reply) (*model.Note, error) {
	filter := Active(bson.M{"_id": id, "comments._id": commentID})
	update := bson.M{"$push": bson.M{"comments.$.replies": reply}}
	return r.modify(ctx, filter, update, "adding reply")
}

// AddReport appends a report unless the user already reported the note, in
// which case ErrDuplicate is returned.
func (r *NotesRepo) AddReport(ctx context.Context, id primitive.ObjectID, report model.Report) (*model.Note, error) {
	filter := Active(bson.M{"_id": id, "reports.user": bson.M{"$ne": report.User}})
	update := bson.M{
		"$push": bson.M{"reports": report},
		"$inc":  bson.M{"reportCount": 1},
	}
	note, err := r.modify(ctx, filter, update, "reporting note")
	if err != ErrNotFound {
		return note, err
	}
	if _, findErr := r.FindByID(ctx, id); findErr == nil {
		return nil, ErrDuplicate
	}
	return nil, ErrNotFound
}

// AuthorStats aggregates a user's active notes.
func (r *NotesRepo) AuthorStats(ctx context.Context, author primitive.ObjectID) (model.UserStats, error) {
	timer := utils.TrackDBOperation("aggregate", NotesCollection)
	defer timer.ObserveDuration()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: Active(bson.M{"author": author})}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"notesCount":     bson.M{"$sum": 1},
			"totalViews":     bson.M{"$sum": "$views"},
			"totalDownloads": bson.M{"$sum": "$downloads"},
			"totalLikes":     bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}}},
			"averageRating":  bson.M{"$avg": "$rating"},
		}}},
	}

	var stats model.UserStats
	cursor, err := r.MongoCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, translate(err, "aggregating author stats")
	}
	defer cursor.Close(ctx)
	if cursor.Next(ctx) {
		if err := cursor.Decode(&stats); err != nil {
			return stats, translate(err, "decoding author stats")
		}
	}
	stats.AverageRating = model.RoundRating(stats.AverageRating)
	return stats, translate(cursor.Err(), "reading author stats")
}
