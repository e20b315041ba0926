package signals

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestConnectDisconnect(t *testing.T) {
	s := New[int]("test")
	noop := func(context.Context, int) error { return nil }

	s.Connect("a", noop)
	s.Connect("b", noop)
	s.Connect("a", noop) // duplicate id ignored

	if got, want := s.LiveReceivers(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("LiveReceivers() = %v, want %v", got, want)
	}

	if !s.Disconnect("a") {
		t.Error("Disconnect(a) = false, want true")
	}
	if s.Disconnect("a") {
		t.Error("second Disconnect(a) = true, want false")
	}
	if got, want := s.LiveReceivers(), []string{"b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("LiveReceivers() = %v, want %v", got, want)
	}
}

func TestConnectGeneratesID(t *testing.T) {
	s := New[int]("test")
	id1 := s.Connect("", func(context.Context, int) error { return nil })
	id2 := s.Connect("", func(context.Context, int) error { return nil })

	if id1 == "" || id2 == "" || id1 == id2 {
		t.Fatalf("expected two distinct generated ids, got %q and %q", id1, id2)
	}
	if n := len(s.LiveReceivers()); n != 2 {
		t.Errorf("expected 2 receivers, got %d", n)
	}
}

func TestSendOrderAndErrors(t *testing.T) {
	s := New[string]("connection_created")
	var calls []string

	s.Connect("first", func(_ context.Context, v string) error {
		calls = append(calls, "first:"+v)
		return errors.New("boom")
	})
	s.Connect("second", func(_ context.Context, v string) error {
		calls = append(calls, "second:"+v)
		return nil
	})

	err := s.Send(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error from failing receiver")
	}
	if !strings.Contains(err.Error(), "connection_created receiver first") {
		t.Errorf("error should name the signal and receiver: %v", err)
	}
	if want := []string{"first:x", "second:x"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestSendNoReceivers(t *testing.T) {
	s := New[int]("empty")
	if err := s.Send(context.Background(), 1); err != nil {
		t.Errorf("Send with no receivers returned %v", err)
	}
}

func TestReceiverMayDisconnectDuringSend(t *testing.T) {
	s := New[int]("test")
	s.Connect("self", func(context.Context, int) error {
		s.Disconnect("self")
		return nil
	})

	if err := s.Send(context.Background(), 1); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n := len(s.LiveReceivers()); n != 0 {
		t.Errorf("expected receiver to be gone, %d left", n)
	}
}
