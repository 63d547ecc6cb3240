package identity

import "context"

// Directory resolves the current user record for a token subject.
type Directory interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

type Repo interface {
	Directory
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetRefreshToken(ctx context.Context, id, digest string) error
}
