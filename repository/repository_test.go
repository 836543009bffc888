package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

// toDoc converts a model value to the bson.D the mock server hands back.
func toDoc(t require.TestingT, v interface{}) bson.D {
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func cursorOf(mt *mtest.T, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, docs...)
}

func countOf(mt *mtest.T, n int32) bson.D {
	return cursorOf(mt, bson.D{{Key: "n", Value: n}})
}

func updated(matched int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: matched},
	)
}

func findAndModifyValue(doc interface{}) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

// lastCommand returns the most recent command sent with the given name.
func lastCommand(mt *mtest.T, name string) bson.Raw {
	var found bson.Raw
	for _, evt := range mt.GetAllStartedEvents() {
		if evt.CommandName == name {
			found = evt.Command
		}
	}
	require.NotNil(mt, found, "no %s command was sent", name)
	return found
}

func TestActiveAlwaysWins(t *testing.T) {
	filter := Active(bson.M{"isActive": false, "author": "x"})
	require.Equal(t, true, filter["isActive"])
	require.Equal(t, "x", filter["author"])

	empty := Active(nil)
	require.Equal(t, bson.M{"isActive": true}, empty)
}
