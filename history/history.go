// Package history keeps a linear undo/redo log of serialized board snapshots.
package history

import (
	"fmt"

	"kanban/domain"
)

// Log is an ordered list of snapshots with a cursor pointing at the active
// one. A Log is not safe for concurrent use.
type Log struct {
	entries [][]byte
	cursor  int
	limit   int
}

// New creates an empty log. A positive limit caps the number of retained
// entries; the oldest are dropped first.
func New(limit int) *Log {
	if limit < 0 {
		limit = 0
	}
	return &Log{cursor: -1, limit: limit}
}

// Snapshot records b as the newest entry. Entries after the cursor are
// discarded first, so redo is no longer possible.
func (l *Log) Snapshot(b domain.Board) error {
	data, err := domain.EncodeBoard(b)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	l.entries = append(l.entries[:l.cursor+1], data)
	l.cursor = len(l.entries) - 1

	if l.limit > 0 && len(l.entries) > l.limit {
		drop := len(l.entries) - l.limit
		l.entries = append([][]byte(nil), l.entries[drop:]...)
		l.cursor -= drop
	}
	return nil
}

// Undo moves the cursor back one entry and returns that board. It reports
// false when there is nothing to undo.
func (l *Log) Undo() (domain.Board, bool, error) {
	if !l.CanUndo() {
		return domain.Board{}, false, nil
	}
	l.cursor--
	return l.decodeCurrent()
}

// Redo moves the cursor forward one entry and returns that board. It reports
// false when the cursor is already at the newest entry.
func (l *Log) Redo() (domain.Board, bool, error) {
	if !l.CanRedo() {
		return domain.Board{}, false, nil
	}
	l.cursor++
	return l.decodeCurrent()
}

// Current returns the board at the cursor.
func (l *Log) Current() (domain.Board, bool, error) {
	if l.cursor < 0 {
		return domain.Board{}, false, nil
	}
	return l.decodeCurrent()
}

func (l *Log) decodeCurrent() (domain.Board, bool, error) {
	b, err := domain.DecodeBoard(l.entries[l.cursor])
	if err != nil {
		return domain.Board{}, false, fmt.Errorf("history entry %d: %w", l.cursor, err)
	}
	return b, true, nil
}

func (l *Log) CanUndo() bool { return l.cursor > 0 }

func (l *Log) CanRedo() bool { return l.cursor >= 0 && l.cursor < len(l.entries)-1 }

func (l *Log) Len() int { return len(l.entries) }

// Cursor is the index of the active entry, -1 before the first snapshot.
func (l *Log) Cursor() int { return l.cursor }
