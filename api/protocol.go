package api

import (
	"kanban/board"
	"kanban/domain"
)

const postCommandMaxSize = 64 * 1024 // 64 KiB

// boardResponse is the board JSON with the history flags beside the
// three column keys.
type boardResponse struct {
	domain.Board
	CanUndo bool   `json:"canUndo"`
	CanRedo bool   `json:"canRedo"`
	Changed bool   `json:"changed"`
	Warning string `json:"warning,omitempty"`
}

func newBoardResponse(out board.Outcome) boardResponse {
	return boardResponse{
		Board:   out.Board,
		CanUndo: out.CanUndo,
		CanRedo: out.CanRedo,
		Changed: out.Changed,
		Warning: out.Warning,
	}
}

// POST /api/tasks request and response bodies
type createTaskRequest struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

type createTaskResponse struct {
	domain.Task
	Warning string `json:"warning,omitempty"`
}

// POST /api/tasks/:id/move request body
type moveTaskRequest struct {
	Column string `json:"column"`
}

const (
	commandApplied   = "applied"
	commandDuplicate = "duplicate"
	commandRejected  = "rejected"
)

type commandResult struct {
	IdempotencyKey string `json:"idempotencyKey"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

// POST /api/commands response body
type postCommandResponse struct {
	Results []commandResult `json:"results"`
	Board   *boardResponse  `json:"board,omitempty"`
	Error   string          `json:"error,omitempty"`
}
