package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/mytinerary/internal/domain"
)

// MemoryStore keeps users and oauth states in process. It enforces the same
// uniqueness rules as the mongo indexes. Selected with MONGO_URI=memory:// for
// local runs, and used by the flow tests.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[primitive.ObjectID]domain.User
	states map[string]OAuthState
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  map[primitive.ObjectID]domain.User{},
		states: map[string]OAuthState{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// MemoryURI selects the in-process store instead of mongo.
const MemoryURI = "memory://"

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) sorted() []domain.User {
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func clone(u domain.User) domain.User {
	u.FavoriteItineraries = append([]string{}, u.FavoriteItineraries...)
	return u
}

func (m *MemoryStore) FindUsers(_ context.Context, f UserFilter) ([]domain.User, error) {
	if f.Email == "" && f.Username == "" {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.User
	for _, u := range m.sorted() {
		if (f.Email != "" && u.Email == f.Email) || (f.Username != "" && u.Username == f.Username) {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

func (m *MemoryStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u = clone(u)
	return &u, nil
}

func (m *MemoryStore) conflicts(u *domain.User) bool {
	for _, o := range m.users {
		if o.Email == u.Email || (u.Username != "" && o.Username == u.Username) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts(u) {
		return ErrDuplicate
	}
	now := m.now()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.FavoriteItineraries == nil {
		u.FavoriteItineraries = []string{}
	}
	m.users[u.ID] = clone(*u)
	return nil
}

func (m *MemoryStore) UpsertFederatedUser(_ context.Context, p domain.FederatedProfile) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var u domain.User
	found := false
	for _, o := range m.users {
		if o.Email == p.Email {
			u, found = o, true
			break
		}
	}
	if !found {
		u = domain.User{
			ID:                  primitive.NewObjectID(),
			Email:               p.Email,
			CreatedAt:           now,
			FavoriteItineraries: []string{},
		}
	}
	u.FirstName, u.LastName, u.UserImage = p.FirstName, p.LastName, p.UserImage
	u.GoogleLogin, u.IsLoggedIn = true, true
	u.UpdatedAt = now
	m.users[u.ID] = u
	u = clone(u)
	return &u, nil
}

func (m *MemoryStore) SetLoggedIn(_ context.Context, id primitive.ObjectID, loggedIn bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsLoggedIn = loggedIn
	u.UpdatedAt = m.now()
	m.users[id] = u
	return nil
}

func (m *MemoryStore) ToggleFavorite(_ context.Context, id primitive.ObjectID, itinerary string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, ErrNotFound
	}
	favs := make([]string, 0, len(u.FavoriteItineraries)+1)
	removed := false
	for _, f := range u.FavoriteItineraries {
		if f == itinerary {
			removed = true
			continue
		}
		favs = append(favs, f)
	}
	if !removed {
		favs = append(favs, itinerary)
	}
	u.FavoriteItineraries = favs
	u.UpdatedAt = m.now()
	m.users[id] = u
	return !removed, nil
}

func (m *MemoryStore) SaveOAuthState(_ context.Context, nonce string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.states[nonce] = OAuthState{Nonce: nonce, ExpiresAt: now.Add(ttl), CreatedAt: now}
	return nil
}

func (m *MemoryStore) ConsumeOAuthState(_ context.Context, nonce string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[nonce]
	now := m.now()
	if !ok || st.UsedAt != nil || !st.ExpiresAt.After(now) {
		return ErrNotFound
	}
	st.UsedAt = &now
	m.states[nonce] = st
	return nil
}
