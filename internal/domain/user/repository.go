package user

import "context"

// Gateway is the remote identity provider.
type Gateway interface {
	Login(ctx context.Context, c Credentials) (token string, err error)
	Register(ctx context.Context, r Registration) (*Profile, error)
	Profile(ctx context.Context, token string) (*Profile, error)
}
