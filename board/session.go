// Package board owns live board state: a Session applies commands to one
// board and its history, a Dispatcher serializes commands onto a single
// goroutine, and a Registry keeps one of each per user.
package board

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"kanban/domain"
	"kanban/history"
)

// StorageKey is the key the board is persisted under. Shared backends
// namespace it per user.
const StorageKey = "kanban_data"

// KeyFor returns the storage key of the board owned by userID.
func KeyFor(userID string) string {
	if userID == "" {
		return StorageKey
	}
	return StorageKey + ":" + userID
}

// Persister loads and saves a serialized board under a key.
type Persister interface {
	Load(ctx context.Context, key string) (domain.Board, bool, error)
	Save(ctx context.Context, key string, b domain.Board) error
}

// Publisher receives an event for every applied change.
type Publisher interface {
	Publish(ctx context.Context, ev domain.BoardEvent) error
}

// Outcome is the result of applying one command.
type Outcome struct {
	Board   domain.Board
	Task    *domain.Task
	Changed bool
	CanUndo bool
	CanRedo bool
	// Warning is set when the change was applied in memory but could not be
	// persisted.
	Warning string
}

// Options tune a Session.
type Options struct {
	HistoryLimit int
	Publisher    Publisher
	Logger       *log.Logger
}

// Session holds the live board of one user together with its history.
// It is not safe for concurrent use; Dispatcher provides serialization.
type Session struct {
	userID  string
	key     string
	board   domain.Board
	history *history.Log
	store   Persister
	pub     Publisher
	logger  *log.Logger
}

// NewSession hydrates the board from store and seeds the history with it.
func NewSession(ctx context.Context, userID string, store Persister, opts Options) (*Session, error) {
	if store == nil {
		return nil, errors.New("board: persister is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	key := KeyFor(userID)
	b, found, err := store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load board %s: %w", key, err)
	}
	if !found {
		b = domain.NewBoard()
	}
	h := history.New(opts.HistoryLimit)
	if err := h.Snapshot(b); err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{"key": key, "tasks": b.Count(), "found": found}).Debug("board.session.hydrated")
	return &Session{
		userID:  userID,
		key:     key,
		board:   b,
		history: h,
		store:   store,
		pub:     opts.Publisher,
		logger:  logger,
	}, nil
}

// Board returns a copy of the live board.
func (s *Session) Board() domain.Board {
	return s.board.Clone()
}

// View reports the current state without applying anything.
func (s *Session) View() Outcome {
	return s.outcome(false)
}

// Apply routes a typed command to the matching operation.
func (s *Session) Apply(ctx context.Context, cmd domain.Command) (Outcome, error) {
	switch c := cmd.(type) {
	case domain.AddTask:
		return s.Add(ctx, c.Title, c.Desc)
	case domain.DeleteTask:
		return s.Delete(ctx, c.ID)
	case domain.MoveTask:
		return s.Move(ctx, c.ID, c.Column)
	case domain.Undo:
		return s.Undo(ctx)
	case domain.Redo:
		return s.Redo(ctx)
	case nil:
		return Outcome{}, &domain.InvalidCommandError{Reason: "nil command"}
	default:
		return Outcome{}, &domain.InvalidCommandError{Type: cmd.Kind(), Reason: "unsupported"}
	}
}

// Add creates a task in the todo column. An empty title is rejected before
// any mutation.
func (s *Session) Add(ctx context.Context, title, desc string) (Outcome, error) {
	task, err := s.board.AddTask(title, desc)
	if err != nil {
		return Outcome{}, err
	}
	out, err := s.commit(ctx, domain.KindAddTask, task.ID, domain.ColumnTodo)
	if err != nil {
		return Outcome{}, err
	}
	out.Task = &task
	return out, nil
}

// Delete removes a task. Unknown ids are a silent no-op.
func (s *Session) Delete(ctx context.Context, id string) (Outcome, error) {
	task, col, ok := s.board.Find(id)
	if !ok {
		return s.outcome(false), nil
	}
	s.board.DeleteTask(id)
	out, err := s.commit(ctx, domain.KindDeleteTask, id, col)
	if err != nil {
		return Outcome{}, err
	}
	out.Task = &task
	return out, nil
}

// Move appends a task to target. Unknown ids are a silent no-op.
func (s *Session) Move(ctx context.Context, id string, target domain.Column) (Outcome, error) {
	if !target.Valid() {
		return Outcome{}, &domain.InvalidColumnError{Value: target.String()}
	}
	moved, err := s.board.MoveTask(id, target)
	if err != nil {
		return Outcome{}, err
	}
	if !moved {
		return s.outcome(false), nil
	}
	task, _, _ := s.board.Find(id)
	out, err := s.commit(ctx, domain.KindMoveTask, id, target)
	if err != nil {
		return Outcome{}, err
	}
	out.Task = &task
	return out, nil
}

// Undo replaces the board with the previous history entry.
func (s *Session) Undo(ctx context.Context) (Outcome, error) {
	b, ok, err := s.history.Undo()
	return s.restore(ctx, domain.KindUndo, b, ok, err)
}

// Redo replaces the board with the next history entry.
func (s *Session) Redo(ctx context.Context) (Outcome, error) {
	b, ok, err := s.history.Redo()
	return s.restore(ctx, domain.KindRedo, b, ok, err)
}

func (s *Session) restore(ctx context.Context, kind string, b domain.Board, ok bool, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return s.outcome(false), nil
	}
	s.board = b
	out := s.outcome(true)
	out.Warning = s.persist(ctx)
	s.publish(ctx, kind, "", 0, out.Board)
	return out, nil
}

// commit records the already mutated board in history, then persists and
// publishes it.
func (s *Session) commit(ctx context.Context, kind, taskID string, col domain.Column) (Outcome, error) {
	if err := s.history.Snapshot(s.board); err != nil {
		return Outcome{}, err
	}
	out := s.outcome(true)
	out.Warning = s.persist(ctx)
	s.publish(ctx, kind, taskID, col, out.Board)
	return out, nil
}

func (s *Session) outcome(changed bool) Outcome {
	return Outcome{
		Board:   s.board.Clone(),
		Changed: changed,
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
	}
}

func (s *Session) persist(ctx context.Context) string {
	if err := s.store.Save(ctx, s.key, s.board); err != nil {
		s.logger.WithFields(log.Fields{"key": s.key, "error": err}).Warn("board.persist.failed")
		return "changes are not saved: " + err.Error()
	}
	return ""
}

func (s *Session) publish(ctx context.Context, kind, taskID string, col domain.Column, b domain.Board) {
	if s.pub == nil {
		return
	}
	ev := domain.BoardEvent{
		UserID: s.userID,
		Type:   kind,
		TaskID: taskID,
		Time:   nextEventTime(),
		Board:  &b,
	}
	if col.Valid() {
		ev.Column = col.String()
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.logger.WithFields(log.Fields{"key": s.key, "type": kind, "error": err}).Warn("board.publish.failed")
	}
}
