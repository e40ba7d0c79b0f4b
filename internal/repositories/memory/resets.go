package memory

import (
	"context"
	"sync"
	"time"

	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
)

type pendingReset struct {
	token    models.ResetToken
	expires  time.Time
	failures int
}

// ResetTokens is the development stand-in for the Redis reset store.
// Expired entries are dropped on read.
type ResetTokens struct {
	mu      sync.Mutex
	pending map[string]pendingReset
	Now     func() time.Time
}

func (r *ResetTokens) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *ResetTokens) Save(_ context.Context, token models.ResetToken, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		r.pending = map[string]pendingReset{}
	}
	r.pending[token.ID] = pendingReset{token: token, expires: r.now().Add(ttl)}
	return nil
}

func (r *ResetTokens) Get(_ context.Context, id string) (models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return models.ResetToken{}, intdb.ErrNotFound
	}
	if !r.now().Before(p.expires) {
		delete(r.pending, id)
		return models.ResetToken{}, intdb.ErrNotFound
	}
	return p.token, nil
}

func (r *ResetTokens) Fail(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok || !r.now().Before(p.expires) {
		delete(r.pending, id)
		return 0, intdb.ErrNotFound
	}
	p.failures++
	r.pending[id] = p
	return p.failures, nil
}

func (r *ResetTokens) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
	return nil
}
