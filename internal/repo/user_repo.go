package repo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/mytinerary/internal/domain"
)

// UserFilter matches users whose email OR username equals the given value.
// Empty fields are ignored.
type UserFilter struct {
	Email    string
	Username string
}

func (f UserFilter) query() bson.M {
	var or bson.A
	if f.Email != "" {
		or = append(or, bson.M{"email": f.Email})
	}
	if f.Username != "" {
		or = append(or, bson.M{"username": f.Username})
	}
	if len(or) == 0 {
		return nil
	}
	return bson.M{"$or": or}
}

// FindUsers returns every match, oldest first. Callers use the first element;
// more than one match means the unique indexes were bypassed at some point.
func (s *Store) FindUsers(ctx context.Context, f UserFilter) ([]domain.User, error) {
	q := f.query()
	if q == nil {
		return nil, nil
	}
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.find")
	defer sp.Finish()

	cur, err := s.colUsers.Find(ctx, q,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).SetLimit(10),
	)
	if err != nil {
		sp.SetTag("error", err)
		return nil, errors.Wrap(err, "find users")
	}
	defer cur.Close(ctx)

	var out []domain.User
	for cur.Next(ctx) {
		var u domain.User
		if err := cur.Decode(&u); err != nil {
			return nil, errors.Wrap(err, "decode user")
		}
		out = append(out, u)
	}
	return out, errors.Wrap(cur.Err(), "iterate users")
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.find_by_id")
	defer sp.Finish()

	var u domain.User
	err := s.colUsers.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, errors.Wrap(err, "find user by id")
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.insert")
	defer sp.Finish()

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.FavoriteItineraries == nil {
		u.FavoriteItineraries = []string{}
	}
	res, err := s.colUsers.InsertOne(ctx, u)
	if IsDup(err) {
		return ErrDuplicate
	}
	if err != nil {
		sp.SetTag("error", err)
		return errors.Wrap(err, "insert user")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

// UpsertFederatedUser creates or updates the user with p.Email in one atomic
// operation. password_hash is never written, so a local account that signs in
// with google keeps its password.
func (s *Store) UpsertFederatedUser(ctx context.Context, p domain.FederatedProfile) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.upsert_federated")
	defer sp.Finish()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"first_name":   p.FirstName,
			"last_name":    p.LastName,
			"user_image":   p.UserImage,
			"google_login": true,
			"is_logged_in": true,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"created_at":           now,
			"favorite_itineraries": bson.A{},
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u domain.User
	var err error
	// two concurrent first sign-ins can both try to insert; the loser retries
	// and then matches the winner's document.
	for attempt := 0; attempt < 2; attempt++ {
		err = s.colUsers.FindOneAndUpdate(ctx, bson.M{"email": p.Email}, update, opts).Decode(&u)
		if !IsDup(err) {
			break
		}
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, errors.Wrap(err, "upsert federated user")
	}
	return &u, nil
}

func (s *Store) SetLoggedIn(ctx context.Context, id primitive.ObjectID, loggedIn bool) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.set_logged_in",
		tracer.Tag("logged_in", loggedIn),
	)
	defer sp.Finish()

	res, err := s.colUsers.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_logged_in": loggedIn, "updated_at": time.Now().UTC()}})
	if err != nil {
		sp.SetTag("error", err)
		return errors.Wrap(err, "set logged in")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleFavorite removes itinerary from the favorites when present, adds it
// otherwise. It reports whether the itinerary is a favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, id primitive.ObjectID, itinerary string) (bool, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.toggle_favorite")
	defer sp.Finish()

	now := time.Now().UTC()
	res, err := s.colUsers.UpdateOne(ctx,
		bson.M{"_id": id, "favorite_itineraries": itinerary},
		bson.M{"$pull": bson.M{"favorite_itineraries": itinerary}, "$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		sp.SetTag("error", err)
		return false, errors.Wrap(err, "pull favorite")
	}
	if res.ModifiedCount == 1 {
		return false, nil
	}

	res, err = s.colUsers.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"favorite_itineraries": itinerary}, "$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		sp.SetTag("error", err)
		return false, errors.Wrap(err, "add favorite")
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return true, nil
}
