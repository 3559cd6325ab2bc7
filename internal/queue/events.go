package queue

// Routing keys on the auth events exchange.
const (
	KeyUserRegistered  = "user.registered"
	KeyUserLoggedIn    = "user.loggedin"
	KeyUserLoggedOut   = "user.loggedout"
	KeyFavoriteToggled = "user.favorite_toggled"
)

type UserRegistered struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserLoggedIn struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Provider string `json:"provider"` // local | google
}

type UserLoggedOut struct {
	UserID string `json:"user_id"`
}

type FavoriteToggled struct {
	UserID    string `json:"user_id"`
	Itinerary string `json:"itinerary"`
	Favorited bool   `json:"favorited"`
}
