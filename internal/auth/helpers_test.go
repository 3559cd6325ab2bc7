package auth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/tazhibayda/mytinerary/internal/auth"
	"github.com/tazhibayda/mytinerary/internal/domain"
	"github.com/tazhibayda/mytinerary/internal/repo"
	"github.com/tazhibayda/mytinerary/internal/security"
)

const testSecret = "test-secret"

type published struct {
	key   string
	event any
}

type recordingPub struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPub) Publish(_ context.Context, key string, ev any, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{key: key, event: ev})
	return nil
}

func (r *recordingPub) Close() error { return nil }

func (r *recordingPub) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.key)
	}
	return out
}

// countingStore counts every call that reaches the store and can be told to
// fail SetLoggedIn.
type countingStore struct {
	*repo.MemoryStore
	calls        atomic.Int64
	failLoggedIn bool
}

var errStoreDown = errors.New("connection reset by peer")

func (c *countingStore) FindUsers(ctx context.Context, f repo.UserFilter) ([]domain.User, error) {
	c.calls.Add(1)
	return c.MemoryStore.FindUsers(ctx, f)
}

func (c *countingStore) CreateUser(ctx context.Context, u *domain.User) error {
	c.calls.Add(1)
	return c.MemoryStore.CreateUser(ctx, u)
}

func (c *countingStore) SetLoggedIn(ctx context.Context, id primitive.ObjectID, v bool) error {
	c.calls.Add(1)
	if c.failLoggedIn {
		return errStoreDown
	}
	return c.MemoryStore.SetLoggedIn(ctx, id, v)
}

type fixture struct {
	svc    *auth.Service
	store  *countingStore
	pub    *recordingPub
	issuer *security.Issuer
}

func newFixture(t *testing.T, ident auth.Identifier) *fixture {
	t.Helper()
	store := &countingStore{MemoryStore: repo.NewMemoryStore()}
	pub := &recordingPub{}
	iss, err := security.NewIssuer(testSecret)
	require.NoError(t, err)
	svc := auth.NewService(store, security.NewHasher(bcrypt.MinCost, 2), iss, pub, ident, nil)
	return &fixture{svc: svc, store: store, pub: pub, issuer: iss}
}

func (f *fixture) register(t *testing.T, email, username, password string) *domain.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), auth.RegisterInput{
		Email: email, Username: username, Password: password, FirstName: "Test",
	})
	require.NoError(t, err)
	return u
}

func kindOf(err error) auth.Kind { return auth.ErrorKind(err) }

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}
