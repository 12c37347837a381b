package refresh

import "time"

// StoredRefreshToken is the provider's record of an issued refresh token.
// Only Token is handed to the client.
type StoredRefreshToken struct {
	Token    string
	UserID   string
	ClientID string
	// Scope is the scope granted at login, carried over on every rotation.
	Scope    string
	IssuedAt time.Time
}

// Repo stores refresh tokens keyed by the opaque token string. A user holds
// at most one token at a time.
type Repo interface {
	Save(rt *StoredRefreshToken) error
	Get(token string) (*StoredRefreshToken, error)
	Delete(token string) error
	// DeleteForUser removes the user's token, if any, and reports whether one existed.
	DeleteForUser(userID string) (bool, error)
	// DeleteIssuedBefore removes every token issued before cutoff and returns how many went.
	DeleteIssuedBefore(cutoff time.Time) (int, error)
}
