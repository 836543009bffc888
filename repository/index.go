package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "passwordResetToken", Value: 1}},
			Options: options.Index().
				SetName("password_reset_token").
				SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("active_users_date"),
		},
	}
}

func subjectIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetName("code_unique").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "code", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().
				SetName("text_search").
				SetDefaultLanguage("english").
				SetWeights(bson.D{
					{Key: "name", Value: 10},
					{Key: "code", Value: 10},
					{Key: "description", Value: 3},
				}),
		},
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("active_subjects_name"),
		},
	}
}

func noteIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Text search index
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "content", Value: "text"},
				{Key: "tags", Value: "text"},
			},
			Options: options.Index().
				SetName("text_search").
				SetDefaultLanguage("english").
				SetLanguageOverride("textLanguage").
				SetWeights(bson.D{
					{Key: "title", Value: 10},
					{Key: "tags", Value: 5},
					{Key: "description", Value: 3},
					{Key: "content", Value: 1},
				}),
		},
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("active_notes_date"),
		},
		{
			Keys: bson.D{
				{Key: "subject", Value: 1},
				{Key: "isActive", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("subject_notes_date"),
		},
		{
			Keys: bson.D{
				{Key: "author", Value: 1},
				{Key: "isActive", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("author_notes_date"),
		},
		{
			Keys:    bson.D{{Key: "isFeatured", Value: 1}, {Key: "rating", Value: -1}},
			Options: options.Index().SetName("featured_rating"),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index().SetName("tags"),
		},
		{
			Keys:    bson.D{{Key: "views", Value: -1}},
			Options: options.Index().SetName("views"),
		},
		{
			Keys:    bson.D{{Key: "downloads", Value: -1}},
			Options: options.Index().SetName("downloads"),
		},
	}
}

func SetupIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sets := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{UsersCollection, userIndexes()},
		{SubjectsCollection, subjectIndexes()},
		{NotesCollection, noteIndexes()},
	}
	for _, set := range sets {
		if _, err := db.Collection(set.collection).Indexes().CreateMany(ctx, set.models); err != nil {
			return errors.Wrapf(err, "failed to create %s indexes", set.collection)
		}
	}

	log.Info().Msg("Successfully created all indexes")
	return nil
}
