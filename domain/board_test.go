package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeBoardEmitsEmptyColumns(t *testing.T) {
	payload, err := EncodeBoard(Board{})
	if err != nil {
		t.Fatalf("encode board: %v", err)
	}
	if got := string(payload); got != `{"todo":[],"progress":[],"done":[]}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestDecodeBoardNormalizes(t *testing.T) {
	data := []byte(`{"todo":[{"id":"a","title":"A","desc":""}],"done":[{"id":"a","title":"dup","desc":""},{"id":"b","title":"B","desc":"x"}]}`)
	b, err := DecodeBoard(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Progress == nil || len(b.Progress) != 0 {
		t.Fatalf("expected empty progress column, got %#v", b.Progress)
	}
	if len(b.Todo) != 1 || len(b.Done) != 1 || b.Done[0].ID != "b" {
		t.Fatalf("expected duplicate id to be dropped, got %+v", b)
	}
}

func TestDecodeBoardRejectsGarbage(t *testing.T) {
	if _, err := DecodeBoard([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestAddTask(t *testing.T) {
	b := NewBoard()
	task, err := b.AddTask("  Write report ", " notes ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if task.ID == "" || task.Title != "Write report" || task.Desc != "notes" {
		t.Fatalf("unexpected task %+v", task)
	}
	if b.Count() != 1 || b.Todo[0].ID != task.ID {
		t.Fatalf("expected task appended to todo, got %+v", b)
	}
}

func TestAddTaskEmptyTitle(t *testing.T) {
	b := NewBoard()
	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := b.AddTask(title, "desc")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("title %q: expected ValidationError, got %v", title, err)
		}
	}
	if b.Count() != 0 {
		t.Fatalf("expected no tasks, got %d", b.Count())
	}
}

func TestDeleteUnknownIDLeavesBoardUnchanged(t *testing.T) {
	b := NewBoard()
	if _, err := b.AddTask("one", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _ := EncodeBoard(b)
	if b.DeleteTask("missing") {
		t.Fatal("expected delete of unknown id to report false")
	}
	after, _ := EncodeBoard(b)
	if string(before) != string(after) {
		t.Fatalf("board changed: %s -> %s", before, after)
	}
}

func TestMoveTask(t *testing.T) {
	b := NewBoard()
	first, _ := b.AddTask("first", "")
	second, _ := b.AddTask("second", "")

	moved, err := b.MoveTask(first.ID, ColumnDone)
	if err != nil || !moved {
		t.Fatalf("move: moved=%v err=%v", moved, err)
	}
	if len(b.Todo) != 1 || b.Todo[0].ID != second.ID {
		t.Fatalf("unexpected todo %+v", b.Todo)
	}
	if len(b.Done) != 1 || b.Done[0].ID != first.ID {
		t.Fatalf("unexpected done %+v", b.Done)
	}
}

func TestMoveTaskToOwnColumnAppends(t *testing.T) {
	b := NewBoard()
	first, _ := b.AddTask("first", "")
	b.AddTask("second", "")
	b.AddTask("third", "")

	if _, err := b.MoveTask(first.ID, ColumnTodo); err != nil {
		t.Fatalf("move: %v", err)
	}
	if b.Count() != 3 {
		t.Fatalf("expected count 3, got %d", b.Count())
	}
	if last := b.Todo[len(b.Todo)-1]; last.ID != first.ID {
		t.Fatalf("expected moved task last, got %+v", b.Todo)
	}
}

func TestMoveTaskInvalidColumn(t *testing.T) {
	b := NewBoard()
	task, _ := b.AddTask("t", "")
	_, err := b.MoveTask(task.ID, Column(42))
	var cerr *InvalidColumnError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected InvalidColumnError, got %v", err)
	}
	if _, col, ok := b.Find(task.ID); !ok || col != ColumnTodo {
		t.Fatalf("task must stay in todo, got col=%v ok=%v", col, ok)
	}
}

func TestMoveUnknownID(t *testing.T) {
	b := NewBoard()
	moved, err := b.MoveTask("nope", ColumnDone)
	if err != nil || moved {
		t.Fatalf("expected silent no-op, moved=%v err=%v", moved, err)
	}
}

func TestUniquenessAcrossOperations(t *testing.T) {
	b := NewBoard()
	var ids []string
	for i := 0; i < 5; i++ {
		task, _ := b.AddTask(strings.Repeat("t", i+1), "")
		ids = append(ids, task.ID)
	}
	ops := []struct {
		id  string
		col Column
	}{
		{ids[0], ColumnProgress}, {ids[0], ColumnDone}, {ids[1], ColumnDone},
		{ids[0], ColumnTodo}, {ids[2], ColumnProgress}, {ids[2], ColumnProgress},
	}
	for _, op := range ops {
		if _, err := b.MoveTask(op.id, op.col); err != nil {
			t.Fatalf("move: %v", err)
		}
	}
	b.DeleteTask(ids[3])

	seen := map[string]int{}
	for _, c := range Columns {
		for _, task := range b.Tasks(c) {
			seen[task.ID]++
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("id %s present %d times", id, n)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(seen))
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := NewBoard()
	b.AddTask("t", "")
	c := b.Clone()
	c.Todo[0].Title = "changed"
	if b.Todo[0].Title != "t" {
		t.Fatal("clone shares backing array")
	}
}
