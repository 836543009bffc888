package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"notemate/model"
	"notemate/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SubjectSearchLimit = 20

var subjectListProjection = bson.M{
	"name": 1, "code": 1, "description": 1, "department": 1, "credits": 1,
	"semester": 1, "year": 1, "difficulty": 1, "icon": 1, "color": 1,
	"notesCount": 1, "averageRating": 1,
}

type SubjectRepo struct {
	MongoCollection *mongo.Collection
	Notes           *mongo.Collection // source of the denormalized counters
}

func GetSubjectRepo(db *mongo.Database) *SubjectRepo {
	return &SubjectRepo{
		MongoCollection: db.Collection(SubjectsCollection),
		Notes:           db.Collection(NotesCollection),
	}
}

type SubjectSearch struct {
	Query      string
	Department string
	Difficulty model.Difficulty
}

func (r *SubjectRepo) Create(ctx context.Context, s *model.Subject) error {
	timer := utils.TrackDBOperation("insert", SubjectsCollection)
	defer timer.ObserveDuration()

	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if _, err := r.MongoCollection.InsertOne(ctx, s); err != nil {
		return translate(err, "inserting subject")
	}
	return nil
}

func (r *SubjectRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Subject, error) {
	timer := utils.TrackDBOperation("find", SubjectsCollection)
	defer timer.ObserveDuration()

	var s model.Subject
	if err := r.MongoCollection.FindOne(ctx, Active(bson.M{"_id": id})).Decode(&s); err != nil {
		return nil, translate(err, "finding subject")
	}
	return &s, nil
}

// FindByCode looks up an active subject by its upper-case code.
func (r *SubjectRepo) FindByCode(ctx context.Context, code string) (*model.Subject, error) {
	timer := utils.TrackDBOperation("find", SubjectsCollection)
	defer timer.ObserveDuration()

	var s model.Subject
	filter := Active(bson.M{"code": strings.ToUpper(strings.TrimSpace(code))})
	if err := r.MongoCollection.FindOne(ctx, filter).Decode(&s); err != nil {
		return nil, translate(err, "finding subject by code")
	}
	return &s, nil
}

func (r *SubjectRepo) List(ctx context.Context, page utils.Page) ([]model.Subject, int64, error) {
	timer := utils.TrackDBOperation("find", SubjectsCollection)
	defer timer.ObserveDuration()

	filter := Active(nil)
	total, err := r.MongoCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "counting subjects")
	}

	opts := options.Find().
		SetProjection(subjectListProjection).
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	subjects, err := r.find(ctx, filter, opts)
	return subjects, total, err
}

// Search combines $text, a case-insensitive department match and an exact
// difficulty. At most SubjectSearchLimit results.
func (r *SubjectRepo) Search(ctx context.Context, q SubjectSearch) ([]model.Subject, error) {
	timer := utils.TrackDBOperation("search", SubjectsCollection)
	defer timer.ObserveDuration()

	filter := bson.M{}
	if q.Query != "" {
		filter["$text"] = bson.M{"$search": q.Query}
	}
	if q.Department != "" {
		filter["department"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.Department), Options: "i"}
	}
	if q.Difficulty != "" {
		filter["difficulty"] = q.Difficulty
	}

	opts := options.Find().
		SetProjection(subjectListProjection).
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(SubjectSearchLimit)
	return r.find(ctx, Active(filter), opts)
}

func (r *SubjectRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Subject, error) {
	subjects := []model.Subject{}
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "listing subjects")
	}
	if err := cursor.All(ctx, &subjects); err != nil {
		return nil, translate(err, "decoding subjects")
	}
	return subjects, nil
}

// FindRefs resolves active subject references for population.
func (r *SubjectRepo) FindRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.SubjectRef, error) {
	out := make(map[primitive.ObjectID]model.SubjectRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	timer := utils.TrackDBOperation("find", SubjectsCollection)
	defer timer.ObserveDuration()

	cursor, err := r.MongoCollection.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "code": 1, "department": 1}))
	if err != nil {
		return nil, translate(err, "populating subjects")
	}
	var refs []model.SubjectRef
	if err := cursor.All(ctx, &refs); err != nil {
		return nil, translate(err, "decoding subjects")
	}
	for _, ref := range refs {
		out[ref.ID] = ref
	}
	return out, nil
}

func (r *SubjectRepo) CountActive(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	timer := utils.TrackDBOperation("count", SubjectsCollection)
	defer timer.ObserveDuration()

	n, err := r.MongoCollection.CountDocuments(ctx, Active(bson.M{"_id": bson.M{"$in": ids}}))
	return n, translate(err, "counting subjects")
}

func (r *SubjectRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.Subject, error) {
	timer := utils.TrackDBOperation("update", SubjectsCollection)
	defer timer.ObserveDuration()

	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s model.Subject
	err := r.MongoCollection.FindOneAndUpdate(ctx, Active(bson.M{"_id": id}), bson.M{"$set": set}, opts).Decode(&s)
	if err != nil {
		return nil, translate(err, "updating subject")
	}
	return &s, nil
}

func (r *SubjectRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Update(ctx, id, bson.M{"isActive": false})
	return err
}

// IncrementCounter applies an atomic $inc to one of the counters.
func (r *SubjectRepo) IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int64) error {
	timer := utils.TrackDBOperation("update", SubjectsCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}})
	return translate(err, "incrementing subject "+field)
}

// ComputeCounters aggregates the current counters from the subject's active
// notes. It never writes, so callers can re-run it freely.
func (r *SubjectRepo) ComputeCounters(ctx context.Context, id primitive.ObjectID) (model.SubjectCounters, error) {
	timer := utils.TrackDBOperation("aggregate", NotesCollection)
	defer timer.ObserveDuration()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: Active(bson.M{"subject": id})}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"notesCount":    bson.M{"$sum": 1},
			"averageRating": bson.M{"$avg": "$rating"},
			"totalViews":    bson.M{"$sum": "$views"},
		}}},
	}

	var counters model.SubjectCounters
	cursor, err := r.Notes.Aggregate(ctx, pipeline)
	if err != nil {
		return counters, translate(err, "aggregating subject counters")
	}
	defer cursor.Close(ctx)

	if cursor.Next(ctx) {
		if err := cursor.Decode(&counters); err != nil {
			return counters, translate(err, "decoding subject counters")
		}
	}
	counters.AverageRating = model.RoundRating(counters.AverageRating)
	return counters, translate(cursor.Err(), "reading subject counters")
}

// RecomputeNotesCount sets notesCount from the active notes.
func (r *SubjectRepo) RecomputeNotesCount(ctx context.Context, id primitive.ObjectID) (int64, error) {
	timer := utils.TrackDBOperation("count", NotesCollection)
	defer timer.ObserveDuration()

	n, err := r.Notes.CountDocuments(ctx, Active(bson.M{"subject": id}))
	if err != nil {
		return 0, translate(err, "counting subject notes")
	}
	if err := r.setCounters(ctx, id, bson.M{"notesCount": n}); err != nil {
		return 0, err
	}
	return n, nil
}

// RecomputeAverageRating sets averageRating from the active notes.
func (r *SubjectRepo) RecomputeAverageRating(ctx context.Context, id primitive.ObjectID) (float64, error) {
	counters, err := r.ComputeCounters(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := r.setCounters(ctx, id, bson.M{"averageRating": counters.AverageRating}); err != nil {
		return 0, err
	}
	return counters.AverageRating, nil
}

// Reconcile overwrites every counter with freshly aggregated values.
func (r *SubjectRepo) Reconcile(ctx context.Context, id primitive.ObjectID) (model.SubjectCounters, error) {
	counters, err := r.ComputeCounters(ctx, id)
	if err != nil {
		return counters, err
	}
	err = r.setCounters(ctx, id, bson.M{
		"notesCount":    counters.NotesCount,
		"averageRating": counters.AverageRating,
		"totalViews":    counters.TotalViews,
	})
	return counters, err
}

func (r *SubjectRepo) setCounters(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	timer := utils.TrackDBOperation("update", SubjectsCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return translate(err, "setting subject counters")
}

// ActiveIDs lists every active subject id, for reconciliation.
func (r *SubjectRepo) ActiveIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	timer := utils.TrackDBOperation("find", SubjectsCollection)
	defer timer.ObserveDuration()

	cursor, err := r.MongoCollection.Find(ctx, Active(nil), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, translate(err, "listing subject ids")
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "decoding subject ids")
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}
