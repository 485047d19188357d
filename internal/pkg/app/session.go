package app

import (
	"golang.org/x/time/rate"
	"sync"
)

type pendingFile struct {
	ID     string
	Source string
}

// pendingFiles remembers the last picture each user sent until they pick a
// grid size for it.
type pendingFiles struct {
	mu    sync.Mutex
	files map[int64]pendingFile
}

func newPendingFiles() *pendingFiles {
	return &pendingFiles{files: make(map[int64]pendingFile)}
}

func (p *pendingFiles) Put(userID int64, f pendingFile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[userID] = f
}

func (p *pendingFiles) Take(userID int64) (pendingFile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.files[userID]
	delete(p.files, userID)
	return f, ok
}

// userLimiter throttles pixellize requests per user.
type userLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
}

func newUserLimiter(perSecond float64, burst int) *userLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &userLimiter{
		limit:    limit,
		burst:    max(1, burst),
		limiters: make(map[int64]*rate.Limiter),
	}
}

func (u *userLimiter) Allow(userID int64) bool {
	u.mu.Lock()
	l, ok := u.limiters[userID]
	if !ok {
		l = rate.NewLimiter(u.limit, u.burst)
		u.limiters[userID] = l
	}
	u.mu.Unlock()
	return l.Allow()
}
