package whatsapp

import (
	"testing"

	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

func TestEventStreamFirstCloseWins(t *testing.T) {
	s := &eventStream{ch: make(chan transport.Event, 16)}

	s.emit(transport.Event{Kind: transport.EventOpened})
	s.closeWith(transport.Event{Kind: transport.EventClosed, Reason: "stream error: 515"})
	// whatsmeow follows up with a Disconnected for the same teardown;
	// it must be swallowed.
	s.closeWith(transport.Event{Kind: transport.EventClosed, Reason: "transport disconnected"})
	s.emit(transport.Event{Kind: transport.EventOpened}) // late emit must not panic

	var got []transport.Event
	for ev := range s.ch {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(got), got)
	}
	if got[0].Kind != transport.EventOpened {
		t.Fatalf("first event = %+v", got[0])
	}
	if got[1].Kind != transport.EventClosed || got[1].Reason != "stream error: 515" {
		t.Fatalf("close event = %+v", got[1])
	}
}

func TestNewProviderRequiresStorePath(t *testing.T) {
	if _, err := NewProvider(Config{}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty store path")
	}
}
