package usecase

import (
	"sync"

	"github.com/secmon-lab/memora/pkg/domain/model"
)

// userLocks serializes the check-then-insert sequence per user. Entries are
// reference counted and removed when no turn holds them.
type userLocks struct {
	mu    sync.Mutex
	locks map[model.UserID]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[model.UserID]*userLock)}
}

// Lock blocks until the caller owns userID and returns the release func.
func (l *userLocks) Lock(userID model.UserID) func() {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &userLock{}
		l.locks[userID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
