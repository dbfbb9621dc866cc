package chat

import "context"

// User is the profile subset mirrored to the external chat provider.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Provider is the contract the backend has with the external chat system.
// UpsertUser is best-effort: callers log failures and carry on. CreateToken
// is load-bearing: without a token the client cannot open a chat session,
// so its failure propagates.
type Provider interface {
	UpsertUser(ctx context.Context, user User) error
	CreateToken(userID string) (string, error)
}
