package board

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"kanban/domain"
)

var (
	// ErrDispatcherBusy is returned when the command buffer stays full for
	// longer than the hand-off timeout.
	ErrDispatcherBusy = errors.New("board dispatcher is saturated")
	// ErrDispatcherClosed is returned for commands submitted after Close.
	ErrDispatcherClosed = errors.New("board dispatcher is closed")
)

const (
	defaultDispatchBuffer = 64
	defaultHandoffTimeout = 50 * time.Millisecond
)

type dispatchResult struct {
	out Outcome
	err error
}

type dispatchJob struct {
	ctx   context.Context
	cmd   domain.Command
	reply chan dispatchResult
}

// DispatcherConfig sizes the command buffer of a Dispatcher.
type DispatcherConfig struct {
	Buffer         int
	HandoffTimeout time.Duration
}

// Dispatcher runs every command of one session to completion on a single
// goroutine, in submission order.
type Dispatcher struct {
	session *Session
	logger  *log.Logger
	handoff time.Duration

	jobs     chan dispatchJob
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewDispatcher starts the command loop for s.
func NewDispatcher(s *Session, cfg DispatcherConfig) *Dispatcher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultDispatchBuffer
	}
	if cfg.HandoffTimeout < 0 {
		cfg.HandoffTimeout = 0
	} else if cfg.HandoffTimeout == 0 {
		cfg.HandoffTimeout = defaultHandoffTimeout
	}
	d := &Dispatcher{
		session: s,
		logger:  s.logger,
		handoff: cfg.HandoffTimeout,
		jobs:    make(chan dispatchJob, cfg.Buffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		select {
		case <-d.stop:
			d.drain()
			return
		case j := <-d.jobs:
			d.run(j)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case j := <-d.jobs:
			d.run(j)
		default:
			return
		}
	}
}

func (d *Dispatcher) run(j dispatchJob) {
	if err := j.ctx.Err(); err != nil {
		j.reply <- dispatchResult{err: err}
		return
	}
	var res dispatchResult
	if j.cmd == nil {
		res.out = d.session.View()
	} else {
		res.out, res.err = d.session.Apply(j.ctx, j.cmd)
	}
	if res.err == nil && res.out.Changed {
		d.logger.WithFields(log.Fields{
			"key":   d.session.key,
			"type":  j.cmd.Kind(),
			"tasks": res.out.Board.Count(),
		}).Debug("board.command.applied")
	}
	j.reply <- res
}

// Dispatch submits cmd and waits for its outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd domain.Command) (Outcome, error) {
	if cmd == nil {
		return Outcome{}, &domain.InvalidCommandError{Reason: "nil command"}
	}
	return d.submit(ctx, cmd)
}

// View returns the current board as seen by the command loop.
func (d *Dispatcher) View(ctx context.Context) (Outcome, error) {
	return d.submit(ctx, nil)
}

func (d *Dispatcher) submit(ctx context.Context, cmd domain.Command) (Outcome, error) {
	j := dispatchJob{ctx: ctx, cmd: cmd, reply: make(chan dispatchResult, 1)}
	if err := d.enqueue(ctx, j); err != nil {
		return Outcome{}, err
	}
	select {
	case res := <-j.reply:
		return res.out, res.err
	case <-d.done:
		select {
		case res := <-j.reply:
			return res.out, res.err
		default:
			return Outcome{}, ErrDispatcherClosed
		}
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, j dispatchJob) error {
	select {
	case <-d.stop:
		return ErrDispatcherClosed
	default:
	}

	select {
	case d.jobs <- j:
		return nil
	default:
	}
	if d.handoff <= 0 {
		return ErrDispatcherBusy
	}

	timer := time.NewTimer(d.handoff)
	defer timer.Stop()
	select {
	case d.jobs <- j:
		return nil
	case <-d.stop:
		return ErrDispatcherClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrDispatcherBusy
	}
}

// Close stops accepting commands, runs the ones already queued and waits
// for the loop to exit.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
	<-d.done
}
