package http

import (
	"context"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/service"
	"github.com/aussiebroadwan/filekeep/pkg/httpx"
)

// sessionAuthenticator resolves session tokens through the AuthService so
// disabled accounts lose access on their next request.
type sessionAuthenticator struct {
	auth *service.AuthService
}

func (a sessionAuthenticator) Authenticate(ctx context.Context, token string) (context.Context, error) {
	ident, err := a.auth.Authenticate(ctx, token)
	if err != nil {
		return ctx, err
	}
	return httpx.WithPrincipal(ctx, ident.ID, ident.Scopes()), nil
}
