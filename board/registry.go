package board

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Registry hands out one Dispatcher per user, hydrating its session from the
// persister on first use.
type Registry struct {
	store    Persister
	opts     Options
	dispatch DispatcherConfig
	logger   *log.Logger

	sf       singleflight.Group
	mu       sync.Mutex
	sessions map[string]*Dispatcher
	closed   bool
}

// NewRegistry creates an empty registry.
func NewRegistry(store Persister, opts Options, dispatch DispatcherConfig) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
		opts.Logger = logger
	}
	return &Registry{
		store:    store,
		opts:     opts,
		dispatch: dispatch,
		logger:   logger,
		sessions: make(map[string]*Dispatcher),
	}
}

// Get returns the dispatcher of userID's board.
func (r *Registry) Get(ctx context.Context, userID string) (*Dispatcher, error) {
	if d, ok, err := r.lookup(userID); ok || err != nil {
		return d, err
	}
	v, err, _ := r.sf.Do(userID, func() (interface{}, error) {
		if d, ok, err := r.lookup(userID); ok || err != nil {
			return d, err
		}
		// Callers waiting on the same hydration must not fail when the first
		// one goes away.
		s, err := NewSession(context.WithoutCancel(ctx), userID, r.store, r.opts)
		if err != nil {
			return nil, err
		}
		d := NewDispatcher(s, r.dispatch)

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			go d.Close()
			return nil, ErrDispatcherClosed
		}
		r.sessions[userID] = d
		r.logger.WithField("user", userID).Debug("board.registry.session_opened")
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dispatcher), nil
}

func (r *Registry) lookup(userID string) (*Dispatcher, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, ErrDispatcherClosed
	}
	d, ok := r.sessions[userID]
	return d, ok, nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops every dispatcher. Further Get calls fail.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Dispatcher)
	r.mu.Unlock()

	for _, d := range sessions {
		d.Close()
	}
}
