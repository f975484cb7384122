package auth

import (
	"context"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"
)

type ctxKey struct{}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(*models.User)
	return user, ok && user != nil
}

// ContextAuthenticator lit l'utilisateur posé par le middleware JWT
type ContextAuthenticator struct{}

func (ContextAuthenticator) CurrentUser(ctx context.Context) (*models.User, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, errs.ErrAuthenticationRequired
	}
	return user, nil
}
