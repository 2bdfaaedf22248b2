package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Task is a single card on the board.
type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// NewTask trims the user supplied fields and assigns a fresh id.
func NewTask(title, desc string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, &ValidationError{Field: "title", Reason: "title required"}
	}
	return Task{
		ID:    uuid.NewString(),
		Title: title,
		Desc:  strings.TrimSpace(desc),
	}, nil
}
