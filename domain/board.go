package domain

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Board holds the ordered task list of every column. A task id appears in at
// most one column.
type Board struct {
	Todo     []Task `json:"todo"`
	Progress []Task `json:"progress"`
	Done     []Task `json:"done"`
}

// NewBoard returns an empty board whose columns encode as empty arrays.
func NewBoard() Board {
	return Board{Todo: []Task{}, Progress: []Task{}, Done: []Task{}}
}

func (b *Board) list(c Column) *[]Task {
	switch c {
	case ColumnTodo:
		return &b.Todo
	case ColumnProgress:
		return &b.Progress
	case ColumnDone:
		return &b.Done
	default:
		return nil
	}
}

// Tasks returns a copy of the tasks in column c.
func (b Board) Tasks(c Column) []Task {
	l := b.list(c)
	if l == nil {
		return nil
	}
	out := make([]Task, len(*l))
	copy(out, *l)
	return out
}

// Count returns the number of tasks across all columns.
func (b Board) Count() int {
	return len(b.Todo) + len(b.Progress) + len(b.Done)
}

// Find locates a task by id.
func (b Board) Find(id string) (Task, Column, bool) {
	for _, c := range Columns {
		for _, t := range *b.list(c) {
			if t.ID == id {
				return t, c, true
			}
		}
	}
	return Task{}, 0, false
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	return Board{
		Todo:     b.Tasks(ColumnTodo),
		Progress: b.Tasks(ColumnProgress),
		Done:     b.Tasks(ColumnDone),
	}
}

// AddTask creates a task and appends it to the todo column.
func (b *Board) AddTask(title, desc string) (Task, error) {
	t, err := NewTask(title, desc)
	if err != nil {
		return Task{}, err
	}
	b.Todo = append(b.Todo, t)
	return t, nil
}

// DeleteTask removes the task with the given id from whichever column holds
// it. It reports false when no column contains the id.
func (b *Board) DeleteTask(id string) bool {
	_, ok := b.take(id)
	return ok
}

// MoveTask removes the task from its current column and appends it to target.
// It reports false when the id is unknown; the board is left untouched then.
func (b *Board) MoveTask(id string, target Column) (bool, error) {
	dst := b.list(target)
	if dst == nil {
		return false, &InvalidColumnError{Value: target.String()}
	}
	t, ok := b.take(id)
	if !ok {
		return false, nil
	}
	*dst = append(*dst, t)
	return true, nil
}

// take removes every occurrence of id and returns the first one found.
func (b *Board) take(id string) (Task, bool) {
	var (
		found Task
		ok    bool
	)
	for _, c := range Columns {
		l := b.list(c)
		kept := make([]Task, 0, len(*l))
		for _, t := range *l {
			if t.ID == id {
				if !ok {
					found, ok = t, true
				}
				continue
			}
			kept = append(kept, t)
		}
		if len(kept) != len(*l) {
			*l = kept
		}
	}
	return found, ok
}

// normalize replaces nil columns with empty ones and drops repeated ids,
// keeping the first occurrence in column order.
func (b *Board) normalize() {
	seen := make(map[string]struct{}, b.Count())
	for _, c := range Columns {
		l := b.list(c)
		kept := make([]Task, 0, len(*l))
		for _, t := range *l {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			kept = append(kept, t)
		}
		*l = kept
	}
}

// EncodeBoard serializes the board as an object with exactly the three
// column keys.
func EncodeBoard(b Board) ([]byte, error) {
	out := b.Clone()
	out.normalize()
	data, err := sonic.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	return data, nil
}

// DecodeBoard parses a serialized board. Missing columns decode as empty.
func DecodeBoard(data []byte) (Board, error) {
	var b Board
	if err := sonic.Unmarshal(data, &b); err != nil {
		return Board{}, fmt.Errorf("decode board: %w", err)
	}
	b.normalize()
	return b, nil
}
