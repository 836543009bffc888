package testutils

import (
	"context"
	"testing"

	"notemate/model"
	"notemate/services"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestSecret is long enough to pass config validation.
const TestSecret = "test-secret-0123456789abcdef0123456789"

// SetupTestEnvironment sets the minimum variables config.Load needs. The
// previous values come back when the test ends.
func SetupTestEnvironment(t *testing.T, overrides map[string]string) {
	t.Helper()

	vars := map[string]string{
		"APP_ENV":     "test",
		"MONGODB_URI": "mongodb://localhost:27017",
		"MONGODB_DB":  "notemate_test",
		"JWT_SECRET":  TestSecret,
	}
	for k, v := range overrides {
		vars[k] = v
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

// Fixtures

func NewUser(t testing.TB, db *DB, name string, role model.Role, password string) *model.User {
	t.Helper()
	user := model.NewUser(name, Email(name), role)
	if password != "" {
		hash, err := services.HashPassword(password)
		require.NoError(t, err)
		user.Password = hash
	}
	require.NoError(t, db.Users().Create(context.Background(), user))
	return user
}

// Email derives a stable address from a display name.
func Email(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		}
	}
	return string(out) + "@uni.edu"
}

// Actor returns the caller identity of a user.
func Actor(u *model.User) *model.Actor {
	return &model.Actor{ID: u.ID, Role: u.Role}
}

// clone deep-copies a document the way a database round trip would.
func clone[T any](v *T) *T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

// applySet overlays a $set document onto doc.
func applySet[T any](doc *T, set bson.M) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	m := bson.M{}
	if err := bson.Unmarshal(raw, &m); err != nil {
		return err
	}
	for k, v := range set {
		m[k] = v
	}
	raw, err = bson.Marshal(m)
	if err != nil {
		return err
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return err
	}
	*doc = out
	return nil
}

func hasID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func withoutID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
