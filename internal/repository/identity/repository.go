package identity

import "context"

// Repository persists issued device identities. The identity is the cart's
// partition key for anonymous sessions, so every issued value is recorded.
type Repository interface {
	Save(ctx context.Context, id string) error
	Touch(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}
