package rpc

import (
	"sync"

	"golang.org/x/time/rate"
)

// chatLimiter throttles messages per chat so one noisy chat cannot starve
// the others. A nil limiter allows everything.
type chatLimiter struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	chats map[string]*rate.Limiter
}

func newChatLimiter(perSecond float64, burst int) *chatLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &chatLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		chats: make(map[string]*rate.Limiter),
	}
}

func (l *chatLimiter) allow(chatID string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	lim, ok := l.chats[chatID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.chats[chatID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
