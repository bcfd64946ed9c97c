package access

import "context"

type ctxKey int

const (
	tokenKey ctxKey = iota
	userKey
)

// WithToken stores the backend bearer token used for calls made on behalf of ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// WithUser stores the authenticated User.
func WithUser(ctx context.Context, usr User) context.Context {
	return context.WithValue(ctx, userKey, usr)
}

func UserFromContext(ctx context.Context) (User, bool) {
	usr, ok := ctx.Value(userKey).(User)
	return usr, ok
}
