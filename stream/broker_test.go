package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"kanban/domain"
)

func recv(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	select {
	case data := <-ch:
		return string(data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return ""
	}
}

func TestBrokerBroadcastPerUser(t *testing.T) {
	b := NewBroker()
	a, cancelA := b.Subscribe("alice")
	defer cancelA()
	other, cancelOther := b.Subscribe("bob")
	defer cancelOther()

	b.Broadcast("alice", []byte("one"))
	if got := recv(t, a); got != "one" {
		t.Fatalf("unexpected payload %q", got)
	}
	select {
	case data := <-other:
		t.Fatalf("bob must not receive alice's board, got %q", data)
	default:
	}
}

func TestBrokerKeepsLatest(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("alice")
	defer cancel()

	b.Broadcast("alice", []byte("old"))
	b.Broadcast("alice", []byte("new"))
	if got := recv(t, ch); got != "new" {
		t.Fatalf("expected newest board, got %q", got)
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	_, cancel1 := b.Subscribe("alice")
	_, cancel2 := b.Subscribe("alice")
	if n := b.Subscribers("alice"); n != 2 {
		t.Fatalf("expected 2 subscribers, got %d", n)
	}
	cancel1()
	cancel1()
	if n := b.Subscribers("alice"); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}
	cancel2()
	if n := b.Subscribers("alice"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
	b.Broadcast("alice", []byte("nobody listens"))
}

func TestBrokerPublishEncodesBoard(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("alice")
	defer cancel()

	board := domain.NewBoard()
	if _, err := board.AddTask("Write report", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := b.Publish(context.Background(), domain.BoardEvent{UserID: "alice", Type: domain.KindAddTask}); err != nil {
		t.Fatalf("publish without board: %v", err)
	}
	if err := b.Publish(context.Background(), domain.BoardEvent{UserID: "alice", Type: domain.KindAddTask, Board: &board}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	want, _ := domain.EncodeBoard(board)
	if got := recv(t, ch); got != string(want) {
		t.Fatalf("got %s want %s", got, want)
	}
}

type funcPublisher func(ctx context.Context, ev domain.BoardEvent) error

func (f funcPublisher) Publish(ctx context.Context, ev domain.BoardEvent) error { return f(ctx, ev) }

func TestFanout(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	ok := funcPublisher(func(context.Context, domain.BoardEvent) error { calls++; return nil })
	bad := funcPublisher(func(context.Context, domain.BoardEvent) error { calls++; return boom })

	f := Fanout{ok, nil, bad, ok}
	err := f.Publish(context.Background(), domain.BoardEvent{UserID: "u"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected every publisher to run, calls=%d", calls)
	}
	if err := (Fanout{ok}).Publish(context.Background(), domain.BoardEvent{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
