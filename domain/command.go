package domain

import "strings"

// Command is one of the typed board commands routed by the dispatcher.
type Command interface {
	Kind() string
}

const (
	KindAddTask    = "add-task"
	KindDeleteTask = "delete-task"
	KindMoveTask   = "move-task"
	KindUndo       = "undo"
	KindRedo       = "redo"
)

// AddTask creates a task in the todo column.
type AddTask struct {
	Title string
	Desc  string
}

// DeleteTask removes a task by id.
type DeleteTask struct {
	ID string
}

// MoveTask appends a task to the end of Column.
type MoveTask struct {
	ID     string
	Column Column
}

// Undo rolls the board back one history step.
type Undo struct{}

// Redo rolls the board forward one history step.
type Redo struct{}

func (AddTask) Kind() string    { return KindAddTask }
func (DeleteTask) Kind() string { return KindDeleteTask }
func (MoveTask) Kind() string   { return KindMoveTask }
func (Undo) Kind() string       { return KindUndo }
func (Redo) Kind() string       { return KindRedo }

// WireCommand is the JSON form of a command as accepted by the HTTP API.
type WireCommand struct {
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	Type           string `json:"type"`
	TaskID         string `json:"taskId,omitempty"`
	Title          string `json:"title,omitempty"`
	Desc           string `json:"desc,omitempty"`
	Column         string `json:"column,omitempty"`
}

// Decode validates the wire form and returns the typed command.
func (w WireCommand) Decode() (Command, error) {
	switch strings.ToLower(strings.TrimSpace(w.Type)) {
	case KindAddTask:
		if strings.TrimSpace(w.Title) == "" {
			return nil, &ValidationError{Field: "title", Reason: "title required"}
		}
		return AddTask{Title: w.Title, Desc: w.Desc}, nil
	case KindDeleteTask:
		if w.TaskID == "" {
			return nil, &InvalidCommandError{Type: KindDeleteTask, Reason: "taskId required"}
		}
		return DeleteTask{ID: w.TaskID}, nil
	case KindMoveTask:
		if w.TaskID == "" {
			return nil, &InvalidCommandError{Type: KindMoveTask, Reason: "taskId required"}
		}
		col, err := ParseColumn(w.Column)
		if err != nil {
			return nil, err
		}
		return MoveTask{ID: w.TaskID, Column: col}, nil
	case KindUndo:
		return Undo{}, nil
	case KindRedo:
		return Redo{}, nil
	default:
		return nil, &InvalidCommandError{Type: w.Type, Reason: "unknown type"}
	}
}
