package model

import "time"

// User is the persisted account row. Balance is mutated only through
// the coins store primitives, never written from client input.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	AvatarURL    string       `json:"avatar_url,omitempty"`
	Balance      int64        `json:"balance"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Profile      *UserProfile `json:"profile,omitempty"`
}

// UserProfile is the questionnaire sub-record, created empty at
// registration and filled in later.
type UserProfile struct {
	UserID    string    `json:"-"`
	Age       *int      `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Interests []string  `json:"interests,omitempty"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"-"`
}

// PublicUser is the shape returned to clients; it never carries the
// password hash.
type PublicUser struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	AvatarURL string       `json:"avatar_url,omitempty"`
	Balance   int64        `json:"balance"`
	CreatedAt time.Time    `json:"created_at"`
	Profile   *UserProfile `json:"profile,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		Balance:   u.Balance,
		CreatedAt: u.CreatedAt,
		Profile:   u.Profile,
	}
}
