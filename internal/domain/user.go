package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"           json:"id"`
	Email               string             `bson:"email"                   json:"email"`
	Username            string             `bson:"username,omitempty"      json:"username,omitempty"` // unique when set
	FirstName           string             `bson:"first_name"              json:"first_name"`
	LastName            string             `bson:"last_name"               json:"last_name"`
	PasswordHash        string             `bson:"password_hash,omitempty" json:"-"` // empty for google-only accounts
	UserImage           string             `bson:"user_image,omitempty"    json:"user_image,omitempty"`
	Country             string             `bson:"country,omitempty"       json:"country,omitempty"`
	GoogleLogin         bool               `bson:"google_login"            json:"google_login"`
	IsLoggedIn          bool               `bson:"is_logged_in"            json:"is_logged_in"`
	FavoriteItineraries []string           `bson:"favorite_itineraries"    json:"favorite_itineraries"`
	CreatedAt           time.Time          `bson:"created_at"              json:"created_at"`
	UpdatedAt           time.Time          `bson:"updated_at"              json:"updated_at"`
}

func (u *User) HasPassword() bool { return u.PasswordHash != "" }

// FederatedProfile is what an identity provider tells us about a user.
type FederatedProfile struct {
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	UserImage     string
}
