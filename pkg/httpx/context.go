package httpx

import "context"

type ctxKey string

const (
	CtxKeySubject    ctxKey = "subject"
	CtxKeyScopes     ctxKey = "scopes"
	CtxKeyAuthSource ctxKey = "auth_source"
)

// Where a session token was read from.
const (
	AuthSourceBearer = "bearer"
	AuthSourceCookie = "cookie"
)

// WithPrincipal records the authenticated subject and its scopes.
func WithPrincipal(ctx context.Context, subject string, scopes []string) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubject, subject)
	return context.WithValue(ctx, CtxKeyScopes, scopes)
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(CtxKeySubject).(string)
	return s, ok && s != ""
}

func AuthSourceFromContext(ctx context.Context) string {
	s, _ := ctx.Value(CtxKeyAuthSource).(string)
	return s
}

func scopesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
