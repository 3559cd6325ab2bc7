package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/mytinerary/internal/domain"
	"github.com/tazhibayda/mytinerary/internal/helper"
	applog "github.com/tazhibayda/mytinerary/internal/log"
	"github.com/tazhibayda/mytinerary/internal/metrics"
	"github.com/tazhibayda/mytinerary/internal/queue"
	"github.com/tazhibayda/mytinerary/internal/repo"
	"github.com/tazhibayda/mytinerary/internal/security"
)

// UserStore is the persistence the flows need. *repo.Store and
// *repo.MemoryStore both satisfy it.
type UserStore interface {
	FindUsers(ctx context.Context, f repo.UserFilter) ([]domain.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpsertFederatedUser(ctx context.Context, p domain.FederatedProfile) (*domain.User, error)
	SetLoggedIn(ctx context.Context, id primitive.ObjectID, loggedIn bool) error
	ToggleFavorite(ctx context.Context, id primitive.ObjectID, itinerary string) (bool, error)
}

// Identifier selects the user field that local login matches on.
type Identifier string

const (
	IdentifierEmail    Identifier = "email"
	IdentifierUsername Identifier = "username"
)

func ParseIdentifier(s string) (Identifier, error) {
	switch Identifier(s) {
	case IdentifierEmail, IdentifierUsername:
		return Identifier(s), nil
	}
	return "", fmt.Errorf("unknown login identifier %q", s)
}

const (
	publishTimeout = 3 * time.Second
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

type Service struct {
	store    UserStore
	hasher   *security.Hasher
	issuer   *security.Issuer
	events   queue.Publisher
	ident    Identifier
	log      *zap.Logger
	validate *validator.Validate
}

func NewService(store UserStore, hasher *security.Hasher, issuer *security.Issuer,
	events queue.Publisher, ident Identifier, logger *zap.Logger) *Service {
	if events == nil {
		events = queue.NewNoop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ident == "" {
		ident = IdentifierEmail
	}
	return &Service{
		store:    store,
		hasher:   hasher,
		issuer:   issuer,
		events:   events,
		ident:    ident,
		log:      logger,
		validate: newValidator(),
	}
}

func (s *Service) Identifier() Identifier { return s.ident }

type RegisterInput struct {
	Email     string `json:"email"      form:"email"      validate:"required,email"`
	Username  string `json:"username"   form:"username"   validate:"omitempty,max=64"`
	Password  string `json:"password"   form:"password"   validate:"required,min=8"`
	FirstName string `json:"first_name" form:"first_name" validate:"max=64"`
	LastName  string `json:"last_name"  form:"last_name"  validate:"max=64"`
	UserImage string `json:"user_image" form:"user_image" validate:"omitempty,url"`
	Country   string `json:"country"    form:"country"    validate:"max=64"`
}

type LoginInput struct {
	Email    string `json:"email"    form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

type LoginResult struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *domain.User `json:"-"`
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *Service) logger(ctx context.Context, fields ...zap.Field) *zap.Logger {
	return applog.WithDD(ctx, s.log, fields...)
}

// publish sends the event off the request path. The request may finish (and
// cancel its context) before the broker answers.
func (s *Service) publish(ctx context.Context, key string, event any) {
	reqID := helper.RequestID(ctx)
	detached := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(detached, publishTimeout)
		defer cancel()
		if err := s.events.Publish(ctx, key, event, reqID); err != nil {
			s.logger(ctx).Warn("event publish failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	lg := s.logger(ctx, zap.String("email_hash", helper.Hash8(in.Email)))

	fields, err := fieldErrors(s.validate, in)
	if err != nil {
		return nil, Internal(err)
	}
	if len(in.Password) > maxPasswordBytes {
		fields = append(fields, FieldError{Field: "password", Message: fmt.Sprintf("must be at most %d bytes long", maxPasswordBytes)})
	}
	if s.ident == IdentifierUsername && in.Username == "" {
		fields = append(fields, FieldError{Field: "username", Message: "is required"})
	}
	if len(fields) > 0 {
		metrics.Auth("register", "invalid")
		return nil, Validation(fields...)
	}

	existing, err := s.store.FindUsers(ctx, repo.UserFilter{Email: in.Email, Username: in.Username})
	if err != nil {
		lg.Error("register lookup failed", zap.Error(err))
		return nil, Internal(err)
	}
	if len(existing) > 0 {
		metrics.Auth("register", "conflict")
		return nil, Conflict("a user with this username and/or email already exists")
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		lg.Error("password hash failed", zap.Error(err))
		return nil, Internal(err)
	}

	u := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		UserImage:    strings.TrimSpace(in.UserImage),
		Country:      strings.TrimSpace(in.Country),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			metrics.Auth("register", "conflict")
			return nil, Conflict("a user with this username and/or email already exists")
		}
		lg.Error("create user failed", zap.Error(err))
		return nil, Internal(err)
	}

	metrics.Auth("register", "ok")
	lg.Info("user registered", zap.String("uid", u.ID.Hex()))
	s.publish(ctx, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: u.ID.Hex(), Email: u.Email, FirstName: u.FirstName, LastName: u.LastName,
	})
	return u, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	var filter repo.UserFilter
	var idField, idValue string
	switch s.ident {
	case IdentifierUsername:
		idField, idValue = "username", strings.TrimSpace(in.Username)
		filter.Username = idValue
	default:
		idField, idValue = "email", normalizeEmail(in.Email)
		filter.Email = idValue
	}
	lg := s.logger(ctx, zap.String("identifier_hash", helper.Hash8(idValue)))

	fields, err := fieldErrors(s.validate, in)
	if err != nil {
		return nil, Internal(err)
	}
	if idValue == "" {
		fields = append([]FieldError{{Field: idField, Message: "is required"}}, fields...)
	}
	if len(fields) > 0 {
		metrics.Auth("login", "invalid")
		return nil, Validation(fields...)
	}

	users, err := s.store.FindUsers(ctx, filter)
	if err != nil {
		lg.Error("login lookup failed", zap.Error(err))
		return nil, Internal(err)
	}
	if len(users) == 0 {
		metrics.Auth("login", "not_found")
		return nil, NotFound("user not found")
	}
	u := users[0]

	if !u.HasPassword() {
		metrics.Auth("login", "no_password")
		return nil, Unauthorized("invalid credentials")
	}
	ok, err := s.hasher.Check(ctx, u.PasswordHash, in.Password)
	if err != nil {
		return nil, Internal(err)
	}
	if !ok {
		metrics.Auth("login", "bad_password")
		lg.Info("login rejected", zap.String("uid", u.ID.Hex()))
		return nil, Unauthorized("invalid credentials")
	}

	tok, err := s.issue(&u)
	if err != nil {
		lg.Error("token sign failed", zap.Error(err))
		return nil, Internal(err)
	}
	if err := s.store.SetLoggedIn(ctx, u.ID, true); err != nil {
		lg.Error("set logged in failed", zap.Error(err))
		return nil, Internal(err)
	}
	u.IsLoggedIn = true

	metrics.Auth("login", "ok")
	lg.Info("user logged in", zap.String("uid", u.ID.Hex()))
	s.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: u.ID.Hex(), Email: u.Email, Provider: "local"})
	return &LoginResult{Success: true, Token: tok, User: &u}, nil
}

// FederatedLogin signs in (creating on first visit) the user an identity
// provider vouched for.
func (s *Service) FederatedLogin(ctx context.Context, p domain.FederatedProfile) (*LoginResult, error) {
	p.Email = normalizeEmail(p.Email)
	lg := s.logger(ctx, zap.String("email_hash", helper.Hash8(p.Email)))

	if p.Email == "" {
		metrics.Auth("federated", "invalid")
		return nil, Validation(FieldError{Field: "email", Message: "is required"})
	}
	if !p.EmailVerified {
		metrics.Auth("federated", "unverified")
		return nil, Unauthorized("email not verified")
	}

	u, err := s.store.UpsertFederatedUser(ctx, p)
	if err != nil {
		lg.Error("federated upsert failed", zap.Error(err))
		return nil, Internal(err)
	}
	tok, err := s.issue(u)
	if err != nil {
		lg.Error("token sign failed", zap.Error(err))
		return nil, Internal(err)
	}

	metrics.Auth("federated", "ok")
	lg.Info("user logged in", zap.String("uid", u.ID.Hex()), zap.String("provider", "google"))
	s.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: u.ID.Hex(), Email: u.Email, Provider: "google"})
	return &LoginResult{Success: true, Token: tok, User: u}, nil
}

func (s *Service) issue(u *domain.User) (string, error) {
	return s.issuer.Issue(security.Claims{
		UID:       u.ID.Hex(),
		Email:     u.Email,
		Username:  u.Username,
		UserImage: u.UserImage,
	})
}

// Logout clears the login flag. Tokens already handed out stay valid until
// they expire; routes that need a logged in user check the flag.
func (s *Service) Logout(ctx context.Context, uid primitive.ObjectID) error {
	if err := s.store.SetLoggedIn(ctx, uid, false); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound("user not found")
		}
		s.logger(ctx).Error("logout failed", zap.String("uid", uid.Hex()), zap.Error(err))
		return Internal(err)
	}
	metrics.Auth("logout", "ok")
	s.publish(ctx, queue.KeyUserLoggedOut, queue.UserLoggedOut{UserID: uid.Hex()})
	return nil
}

func (s *Service) Me(ctx context.Context, uid primitive.ObjectID) (*domain.User, error) {
	u, err := s.store.FindUserByID(ctx, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return u, nil
}

// Authenticate resolves a bearer token to its user. Every token problem and a
// missing user come back as the same Unauthorized error.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		metrics.Auth("gate", "bad_token")
		return nil, Unauthorized("unauthorized")
	}
	uid, err := primitive.ObjectIDFromHex(claims.UID)
	if err != nil {
		metrics.Auth("gate", "bad_token")
		return nil, Unauthorized("unauthorized")
	}
	u, err := s.store.FindUserByID(ctx, uid)
	if errors.Is(err, repo.ErrNotFound) {
		metrics.Auth("gate", "unknown_user")
		return nil, Unauthorized("unauthorized")
	}
	if err != nil {
		s.logger(ctx).Error("gate lookup failed", zap.String("uid", claims.UID), zap.Error(err))
		return nil, Internal(err)
	}
	return u, nil
}

const maxItineraryTitle = 200

func (s *Service) ToggleFavorite(ctx context.Context, u *domain.User, title string) (bool, error) {
	if !u.IsLoggedIn {
		return false, Forbidden("not logged in")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return false, Validation(FieldError{Field: "itineraryTitle", Message: "is required"})
	}
	if len(title) > maxItineraryTitle {
		return false, Validation(FieldError{Field: "itineraryTitle", Message: fmt.Sprintf("must be at most %d characters long", maxItineraryTitle)})
	}

	on, err := s.store.ToggleFavorite(ctx, u.ID, title)
	if errors.Is(err, repo.ErrNotFound) {
		return false, NotFound("user not found")
	}
	if err != nil {
		s.logger(ctx).Error("toggle favorite failed", zap.String("uid", u.ID.Hex()), zap.Error(err))
		return false, Internal(err)
	}
	s.publish(ctx, queue.KeyFavoriteToggled, queue.FavoriteToggled{UserID: u.ID.Hex(), Itinerary: title, Favorited: on})
	return on, nil
}

func (s *Service) Favorites(_ context.Context, u *domain.User) ([]string, error) {
	if !u.IsLoggedIn {
		return nil, Forbidden("not logged in")
	}
	if u.FavoriteItineraries == nil {
		return []string{}, nil
	}
	return u.FavoriteItineraries, nil
}
