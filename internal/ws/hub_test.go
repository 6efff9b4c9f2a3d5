package ws

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
)

type recordingSub struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   bool
	closed bool
}

func (s *recordingSub) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("send failed")
	}
	s.msgs = append(s.msgs, payload)
	return nil
}

func (s *recordingSub) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recordingSub) received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestHubBroadcastByAgent(t *testing.T) {
	hub := NewHub()
	a1 := &recordingSub{}
	a2 := &recordingSub{}
	all := &recordingSub{}

	hub.Register("a1", a1)
	hub.Register("a2", a2)
	hub.Register(AllAgents, all)

	hub.Broadcast("a1", []byte("one"))
	waitFor(t, func() bool { return a1.received() == 1 && all.received() == 1 })
	if a2.received() != 0 {
		t.Fatal("subscriber for another agent must not receive the frame")
	}

	hub.Broadcast("a2", []byte("two"))
	waitFor(t, func() bool { return a2.received() == 1 && all.received() == 2 })
	if a1.received() != 1 {
		t.Fatalf("a1 received %d frames, want 1", a1.received())
	}
}

func TestHubDropsFailingSubscriber(t *testing.T) {
	hub := NewHub()
	bad := &recordingSub{fail: true}
	good := &recordingSub{}

	hub.Register("a1", bad)
	hub.Register("a1", good)

	hub.Broadcast("a1", []byte("one"))
	waitFor(t, func() bool { return good.received() == 1 })
	waitFor(t, func() bool {
		bad.mu.Lock()
		defer bad.mu.Unlock()
		return bad.closed
	})

	hub.Broadcast("a1", []byte("two"))
	waitFor(t, func() bool { return good.received() == 2 })
	if bad.received() != 0 {
		t.Fatal("failing subscriber must not accumulate frames")
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	sub := &recordingSub{}
	hub.Register("a1", sub)
	hub.Broadcast("a1", []byte("one"))
	waitFor(t, func() bool { return sub.received() == 1 })

	hub.Unregister("a1", sub)
	hub.Broadcast("a1", []byte("two"))

	probe := &recordingSub{}
	hub.Register("a1", probe)
	hub.Broadcast("a1", []byte("three"))
	waitFor(t, func() bool { return probe.received() == 1 })
	if sub.received() != 1 {
		t.Fatalf("unregistered subscriber received %d frames, want 1", sub.received())
	}
}

func TestBroadcastEventFrame(t *testing.T) {
	hub := NewHub()
	sub := &recordingSub{}
	hub.Register(AllAgents, sub)

	hub.BroadcastEvent(&domain.Event{
		ID:        7,
		Timestamp: time.Date(2025, 3, 20, 10, 5, 0, 0, time.UTC),
		AgentID:   "a1",
		EventType: "LLM_call_start",
		Level:     "INFO",
	})
	waitFor(t, func() bool { return sub.received() == 1 })

	sub.mu.Lock()
	frame := string(sub.msgs[0])
	sub.mu.Unlock()
	for _, want := range []string{`"agent_id":"a1"`, `"event_type":"LLM_call_start"`, `"id":7`, `"is_error":false`} {
		if !strings.Contains(frame, want) {
			t.Fatalf("frame %s missing %s", frame, want)
		}
	}

	hub.BroadcastEvent(&domain.Event{ID: 8, AgentID: "a1", EventType: "LLM_call_finish", Level: domain.LevelError})
	waitFor(t, func() bool { return sub.received() == 2 })
	sub.mu.Lock()
	frame = string(sub.msgs[1])
	sub.mu.Unlock()
	if !strings.Contains(frame, `"is_error":true`) {
		t.Fatalf("error frame %s not flagged", frame)
	}
}
