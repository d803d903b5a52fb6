package model

import (
	"context"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// UserID identifies the owner of memories. It is supplied by the
// authentication collaborator.
type UserID int64

func (x UserID) String() string {
	return strconv.FormatInt(int64(x), 10)
}

// ParseUserID parses a decimal user identifier.
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, goerr.New("invalid user id", goerr.V("value", s))
	}
	return UserID(v), nil
}

type userIDKey struct{}

// ContextWithUserID returns ctx carrying the authenticated user.
func ContextWithUserID(ctx context.Context, id UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (UserID, bool) {
	id, ok := ctx.Value(userIDKey{}).(UserID)
	return id, ok && id > 0
}
