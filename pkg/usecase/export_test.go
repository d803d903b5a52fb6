package usecase

import (
	"time"

	"github.com/secmon-lab/memora/pkg/domain/model"
)

// UserLocks is exported for testing
type UserLocks = userLocks

// NewUserLocks is exported for testing
var NewUserLocks = newUserLocks

// Size is exported for testing
func (l *userLocks) Size() int { return l.size() }

// FormatMemoryEntry is exported for testing
func FormatMemoryEntry(n int, m *model.Memory) string { return formatMemoryEntry(n, m) }

// AuthCache is exported for testing
type AuthCache = authCache

var NewAuthCache = newAuthCache

func (c *authCache) Get(token string, now time.Time) (model.UserID, bool) { return c.get(token, now) }
func (c *authCache) Set(token string, userID model.UserID, tokenExpiry, now time.Time) {
	c.set(token, userID, tokenExpiry, now)
}
