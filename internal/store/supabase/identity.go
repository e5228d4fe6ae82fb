package supabase

import (
	"context"

	sb "smartpurse/backend/internal/supabase"
)

// Identity provisions logins through the GoTrue admin API.
type Identity struct {
	auth *sb.AuthClient
}

func NewIdentity(client *sb.Client) *Identity {
	return &Identity{auth: client.Auth()}
}

func (i *Identity) CreateIdentity(ctx context.Context, email string, password string) (string, error) {
	user, err := i.auth.CreateUser(ctx, email, password)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (i *Identity) DeleteIdentity(ctx context.Context, authUserID string) error {
	return translate(i.auth.DeleteUser(ctx, authUserID))
}

func (i *Identity) SendPasswordReset(ctx context.Context, email string, redirectTo string) error {
	return i.auth.ResetPasswordForEmail(ctx, email, redirectTo)
}
