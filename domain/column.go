package domain

import (
	"strings"
)

// Column identifies one of the three fixed task buckets of a board.
type Column uint8

const (
	ColumnTodo Column = iota + 1
	ColumnProgress
	ColumnDone
)

// Columns lists every column in display order.
var Columns = [...]Column{ColumnTodo, ColumnProgress, ColumnDone}

var columnNames = map[Column]string{
	ColumnTodo:     "todo",
	ColumnProgress: "progress",
	ColumnDone:     "done",
}

// ParseColumn converts a wire name into a Column. Unknown names yield an
// InvalidColumnError.
func ParseColumn(s string) (Column, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c, n := range columnNames {
		if n == name {
			return c, nil
		}
	}
	return 0, &InvalidColumnError{Value: s}
}

func (c Column) Valid() bool {
	_, ok := columnNames[c]
	return ok
}

func (c Column) String() string {
	if n, ok := columnNames[c]; ok {
		return n
	}
	return "invalid"
}

// Title is the heading shown by renderers.
func (c Column) Title() string {
	switch c {
	case ColumnTodo:
		return "To Do"
	case ColumnProgress:
		return "In Progress"
	case ColumnDone:
		return "Done"
	default:
		return ""
	}
}

func (c Column) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, &InvalidColumnError{Value: c.String()}
	}
	return []byte(c.String()), nil
}

func (c *Column) UnmarshalText(text []byte) error {
	parsed, err := ParseColumn(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
