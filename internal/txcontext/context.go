// Package txcontext carries the per-transaction values that date-sensitive
// lookups and user warnings depend on.
package txcontext

import (
	"context"
	"strings"
	"time"
)

type dateKey struct{}
type userKey struct{}
type sessionKey struct{}

// WithDate scopes the active accounting date. Currency rates and other dated
// lookups performed with the returned context resolve against it.
func WithDate(ctx context.Context, date time.Time) context.Context {
	return context.WithValue(ctx, dateKey{}, truncateDay(date))
}

// DateFromContext returns the scoped date, if any.
func DateFromContext(ctx context.Context) (time.Time, bool) {
	if ctx == nil {
		return time.Time{}, false
	}
	value, ok := ctx.Value(dateKey{}).(time.Time)
	if !ok || value.IsZero() {
		return time.Time{}, false
	}
	return value, true
}

// DateOr returns the scoped date or fallback truncated to the day.
func DateOr(ctx context.Context, fallback time.Time) time.Time {
	if date, ok := DateFromContext(ctx); ok {
		return date
	}
	return truncateDay(fallback)
}

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, strings.TrimSpace(userID))
}

func UserFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(userKey{}).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, strings.TrimSpace(sessionID))
}

func SessionFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(sessionKey{}).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
