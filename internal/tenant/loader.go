package tenant

import (
	"context"
	"errors"
	"sync"

	"github.com/suteetoe/vitrin/metrics"
)

// ErrStale is returned when a fetch completes after the loader moved on to
// another tenant. The result has been discarded.
var ErrStale = errors.New("tenant: stale fetch discarded")

// Resolving is satisfied by *Resolver and by cached variants of it.
type Resolving interface {
	Resolve(ctx context.Context, slug string) (*Snapshot, error)
}

// Ticket identifies one fetch started by Begin.
type Ticket struct {
	Slug       string
	generation uint64
	ctx        context.Context
}

// Context is cancelled when a newer fetch supersedes this one.
func (t Ticket) Context() context.Context {
	return t.ctx
}

// Loader tracks the active tenant of one session. Only the result of the
// most recent Begin is ever applied.
type Loader struct {
	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	slug       string
	state      State
	snapshot   *Snapshot
	err        error
}

func NewLoader() *Loader {
	return &Loader{state: StateIdle}
}

// Begin starts loading slug, cancelling any fetch already in flight.
func (l *Loader) Begin(parent context.Context, slug string) Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.generation++
	l.cancel = cancel
	l.slug = slug
	l.state = StateLoading
	l.snapshot = nil
	l.err = nil

	return Ticket{Slug: slug, generation: l.generation, ctx: ctx}
}

// Complete applies the outcome of the fetch identified by ticket. It returns
// ErrStale without touching state if a newer fetch has begun.
func (l *Loader) Complete(ticket Ticket, snap *Snapshot, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ticket.generation != l.generation {
		metrics.RecordStaleFetch()
		return ErrStale
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	if err != nil {
		l.state = StateFailed
		l.snapshot = nil
		l.err = err
		return err
	}
	l.state = snap.State
	l.snapshot = snap
	return nil
}

// Adopt makes slug active with an already resolved snapshot. Any fetch in
// flight is cancelled and its result will be reported stale.
func (l *Loader) Adopt(slug string, snap *Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.generation++
	l.slug = slug
	l.state = snap.State
	l.snapshot = snap
	l.err = nil
}

// Load runs a full Begin/Resolve/Complete cycle for slug.
func (l *Loader) Load(ctx context.Context, slug string, r Resolving) (*Snapshot, error) {
	ticket := l.Begin(ctx, slug)
	snap, err := r.Resolve(ticket.Context(), slug)
	if err := l.Complete(ticket, snap, err); err != nil {
		return nil, err
	}
	return snap, nil
}

// Current returns the active slug, its state, and the applied snapshot.
func (l *Loader) Current() (string, State, *Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slug, l.state, l.snapshot, l.err
}

// Reset returns the loader to idle and cancels any fetch in flight.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.generation++
	l.slug = ""
	l.state = StateIdle
	l.snapshot = nil
	l.err = nil
}
