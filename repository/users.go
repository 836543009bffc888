package repository

import (
	"context"
	"regexp"
	"time"

	"notemate/model"
	"notemate/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// summaryProjection is what populate() exposes of another user.
var summaryProjection = bson.M{
	"name": 1, "avatar": 1, "reputation": 1, "university": 1, "course": 1,
}

type UserRepo struct {
	MongoCollection *mongo.Collection
}

func GetUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{MongoCollection: db.Collection(UsersCollection)}
}

type UserFilter struct {
	Role   model.Role
	Search string // name or email substring
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	timer := utils.TrackDBOperation("insert", UsersCollection)
	defer timer.ObserveDuration()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.MongoCollection.InsertOne(ctx, user); err != nil {
		utils.TrackError("database", "user_creation_failed")
		return translate(err, "inserting user")
	}
	return nil
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	timer := utils.TrackDBOperation("find", UsersCollection)
	defer timer.ObserveDuration()

	var user model.User
	if err := r.MongoCollection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err, "finding user")
	}
	return &user, nil
}

// FindByID returns an active user.
func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, Active(bson.M{"_id": id}))
}

// FindAnyByID ignores the soft-delete flag. Only admin paths use it.
func (r *UserRepo) FindAnyByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail matches deactivated accounts too, since email stays unique.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) List(ctx context.Context, f UserFilter, page utils.Page) ([]model.User, int64, error) {
	timer := utils.TrackDBOperation("find", UsersCollection)
	defer timer.ObserveDuration()

	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"email": pattern}}
	}
	filter = Active(filter)

	total, err := r.MongoCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "counting users")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	users := []model.User{}
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err, "listing users")
	}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, translate(err, "decoding users")
	}
	return users, total, nil
}

// ListByIDs pages through the active users among ids, by name.
func (r *UserRepo) ListByIDs(ctx context.Context, ids []primitive.ObjectID, page utils.Page) ([]model.UserSummary, int64, error) {
	timer := utils.TrackDBOperation("find", UsersCollection)
	defer timer.ObserveDuration()

	summaries := []model.UserSummary{}
	if len(ids) == 0 {
		return summaries, 0, nil
	}
	filter := Active(bson.M{"_id": bson.M{"$in": ids}})
	total, err := r.MongoCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "counting users")
	}
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err, "listing users")
	}
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, 0, translate(err, "decoding users")
	}
	return summaries, total, nil
}

// FindSummaries resolves user references for population. Missing ids are
// simply absent from the map.
func (r *UserRepo) FindSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.UserSummary, error) {
	out := make(map[primitive.ObjectID]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	timer := utils.TrackDBOperation("find", UsersCollection)
	defer timer.ObserveDuration()

	cursor, err := r.MongoCollection.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, translate(err, "populating users")
	}
	var summaries []model.UserSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, translate(err, "decoding users")
	}
	for _, s := range summaries {
		out[s.ID] = s
	}
	return out, nil
}

// Update applies $set to an active user and returns the new document.
func (r *UserRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.User, error) {
	return r.update(ctx, Active(bson.M{"_id": id}), id, set)
}

// UpdateAny is the admin variant that can reactivate accounts.
func (r *UserRepo) UpdateAny(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.User, error) {
	return r.update(ctx, bson.M{"_id": id}, id, set)
}

func (r *UserRepo) update(ctx context.Context, filter bson.M, id primitive.ObjectID, set bson.M) (*model.User, error) {
	timer := utils.TrackDBOperation("update", UsersCollection)
	defer timer.ObserveDuration()

	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user model.User
	err := r.MongoCollection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		utils.TrackError("database", "user_update_failed")
		return nil, translate(err, "updating user")
	}
	return &user, nil
}

func (r *UserRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Update(ctx, id, bson.M{"isActive": false})
	return err
}

func (r *UserRepo) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time, client string) error {
	timer := utils.TrackDBOperation("update", UsersCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastLogin": at, "lastLoginClient": client}})
	return translate(err, "recording login")
}

func (r *UserRepo) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	timer := utils.TrackDBOperation("update", UsersCollection)
	defer timer.ObserveDuration()

	res, err := r.MongoCollection.UpdateOne(ctx, Active(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"passwordResetToken": tokenHash, "passwordResetExpires": expires}})
	if err != nil {
		return translate(err, "storing reset token")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPassword swaps the password for the holder of an unexpired reset
// token and clears the token in the same write, so a token works once.
func (r *UserRepo) ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*model.User, error) {
	timer := utils.TrackDBOperation("update", UsersCollection)
	defer timer.ObserveDuration()

	filter := Active(bson.M{
		"passwordResetToken":   tokenHash,
		"passwordResetExpires": bson.M{"$gt": now},
	})
	update := bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": now},
		"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user model.User
	if err := r.MongoCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		return nil, translate(err, "resetting password")
	}
	return &user, nil
}

func (r *UserRepo) AddUploadedNote(ctx context.Context, userID, noteID primitive.ObjectID) error {
	timer := utils.TrackDBOperation("update", UsersCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"uploadedNotes": noteID}})
	return translate(err, "linking uploaded note")
}

// Follow records the edge on both users. $addToSet keeps it idempotent.
func (r *UserRepo) Follow(ctx context.Context, follower, target primitive.ObjectID) error {
	return r.edge(ctx, follower, target, "$addToSet")
}

func (r *UserRepo) Unfollow(ctx context.Context, follower, target primitive.ObjectID) error {
	return r.edge(ctx, follower, target, "$pull")
}

func (r *UserRepo) edge(ctx context.Context, follower, target primitive.ObjectID, op string) error {
	timer := utils.TrackDBOperation("update", UsersCollection)
	defer timer.ObserveDuration()

	if _, err := r.MongoCollection.UpdateOne(ctx, bson.M{"_id": follower},
		bson.M{op: bson.M{"following": target}}); err != nil {
		return translate(err, "updating following")
	}
	if _, err := r.MongoCollection.UpdateOne(ctx, bson.M{"_id": target},
		bson.M{op: bson.M{"followers": follower}}); err != nil {
		return translate(err, "updating followers")
	}
	return nil
}

func (r *UserRepo) SetTwoFactor(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	_, err := r.Update(ctx, id, set)
	return err
}

// ConsumeRecoveryCode removes a matching recovery code hash. It reports
// whether one was removed.
func (r *UserRepo) ConsumeRecoveryCode(ctx context.Context, id primitive.ObjectID, codeHash string) (bool, error) {
	timer := utils.TrackDBOperation("update", UsersCollection)
	defer timer.ObserveDuration()

	res, err := r.MongoCollection.UpdateOne(ctx,
		Active(bson.M{"_id": id, "twoFactorRecoveryCodes": codeHash}),
		bson.M{"$pull": bson.M{"twoFactorRecoveryCodes": codeHash}})
	if err != nil {
		return false, translate(err, "consuming recovery code")
	}
	return res.ModifiedCount == 1, nil
}
