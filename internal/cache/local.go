package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// Local is an in-process ConsensusCache. It is used when no Redis URL is
// configured; each replica then keeps its own memo.
type Local struct {
	mu     sync.Mutex
	labels *gocache.Cache
	gens   *gocache.Cache

	// seq hands out generations. It only grows, so an expired generation
	// entry never comes back with a value a reader already holds.
	seq uint64
}

// NewLocal creates a Local cache whose entries expire after ttl.
// Generations outlive labels so a reader cannot see one reset mid-read.
func NewLocal(ttl time.Duration) *Local {
	return &Local{
		labels: gocache.New(ttl, ttl*2),
		gens:   gocache.New(ttl*2, ttl*4),
	}
}

func (l *Local) Get(_ context.Context, key Key) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{Generation: l.generation(key)}
	if v, ok := l.labels.Get(key.String()); ok {
		entry.Label, entry.Hit = v.(domain.ConsensusLabel)
	}
	return entry, nil
}

func (l *Local) Set(_ context.Context, key Key, gen uint64, label domain.ConsensusLabel) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.generation(key) != gen {
		return false, nil
	}
	l.labels.Set(key.String(), label, gocache.DefaultExpiration)
	return true, nil
}

func (l *Local) Invalidate(_ context.Context, key Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	l.gens.Set(key.String(), l.seq, gocache.DefaultExpiration)
	l.labels.Delete(key.String())
	return nil
}

// generation returns the subject's generation; zero if it was never invalidated.
// Callers hold l.mu.
func (l *Local) generation(key Key) uint64 {
	if v, ok := l.gens.Get(key.String()); ok {
		return v.(uint64)
	}
	return 0
}

var _ ConsensusCache = (*Local)(nil)
