package repo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

type OAuthState struct {
	ID        interface{} `bson:"_id,omitempty"`
	Nonce     string      `bson:"nonce"`
	ExpiresAt time.Time   `bson:"expires_at"` // TTL index
	UsedAt    *time.Time  `bson:"used_at,omitempty"`
	CreatedAt time.Time   `bson:"created_at"`
}

func (s *Store) SaveOAuthState(ctx context.Context, nonce string, ttl time.Duration) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.oauth_state.insert")
	defer sp.Finish()

	now := time.Now().UTC()
	_, err := s.colStates.InsertOne(ctx, OAuthState{
		Nonce:     nonce,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		sp.SetTag("error", err)
		return errors.Wrap(err, "insert oauth state")
	}
	return nil
}

// ConsumeOAuthState marks the nonce used. A nonce works once, and only before
// it expires (the TTL monitor may lag, so expiry is also checked here).
func (s *Store) ConsumeOAuthState(ctx context.Context, nonce string) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.oauth_state.consume")
	defer sp.Finish()

	now := time.Now().UTC()
	err := s.colStates.FindOneAndUpdate(ctx,
		bson.M{"nonce": nonce, "used_at": bson.M{"$exists": false}, "expires_at": bson.M{"$gt": now}},
		bson.M{"$set": bson.M{"used_at": now}},
	).Err()
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		sp.SetTag("error", err)
		return errors.Wrap(err, "consume oauth state")
	}
	return nil
}
