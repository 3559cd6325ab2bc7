package repo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsDup(t *testing.T) {
	dupWrite := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	dupCmd := mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}

	assert.True(t, IsDup(dupWrite))
	assert.True(t, IsDup(dupCmd))
	assert.True(t, IsDup(errors.Join(errors.New("insert"), dupWrite)))

	assert.False(t, IsDup(nil))
	assert.False(t, IsDup(errors.New("boom")))
	assert.False(t, IsDup(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121}}}))
}

func TestUserFilterQuery(t *testing.T) {
	assert.Nil(t, UserFilter{}.query())
	assert.Equal(t, bson.M{"$or": bson.A{bson.M{"email": "a@x.io"}}}, UserFilter{Email: "a@x.io"}.query())
	assert.Equal(t,
		bson.M{"$or": bson.A{bson.M{"email": "a@x.io"}, bson.M{"username": "ann"}}},
		UserFilter{Email: "a@x.io", Username: "ann"}.query())
}
