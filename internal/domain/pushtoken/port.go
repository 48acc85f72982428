package pushtoken

import "context"

// Registry is the push-address book. AllTokens returns the distinct token
// set: two users sharing a device must collapse to one delivery attempt.
type Registry interface {
	Register(ctx context.Context, userID int64, token string) error
	AllTokens(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, tokens []string) error
}
