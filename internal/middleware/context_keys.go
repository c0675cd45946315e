package middleware

import "context"

// contextKey is a private type for context keys defined by this package.
// Using a custom type prevents collisions.
type contextKey string

const (
	// loggerCtxKey stores the request-scoped slog logger.
	loggerCtxKey = contextKey("logger")
	// subjectKey stores the authenticated token subject.
	subjectKey = contextKey("subject")
)

// GetSubjectFromCtx retrieves the authenticated subject from the context.
// It returns the subject and a boolean indicating if it was found.
func GetSubjectFromCtx(ctx context.Context) (string, bool) {
	subjectVal := ctx.Value(subjectKey)
	if subjectVal == nil {
		return "", false
	}
	subject, ok := subjectVal.(string)
	if !ok {
		return "", false
	}
	return subject, true
}
