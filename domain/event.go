package domain

// BoardEvent describes an applied change. Board carries the resulting state
// so subscribers can render without another read.
type BoardEvent struct {
	UserID string `json:"userId"`
	Type   string `json:"type"`
	TaskID string `json:"taskId,omitempty"`
	Column string `json:"column,omitempty"`
	Time   int64  `json:"time"`
	Board  *Board `json:"board,omitempty"`
}
