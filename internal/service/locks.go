package service

import "sync"

// UserLocks serializes read-modify-write cycles on one user's plan and
// check-in log. Services sharing a UserLocks never interleave for a user.
type UserLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[uint]*sync.Mutex)}
}

// Lock blocks until the user's lock is held and returns its release func.
func (l *UserLocks) Lock(userID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
