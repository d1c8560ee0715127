package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"remindbot/internal/store"
	"remindbot/internal/transport"
)

// fakeStore behaves like the real gateway: fetch returns appointments
// without a sent record, RecordSent marks them.
type fakeStore struct {
	mu sync.Mutex

	appts    []store.Appointment
	fetchErr error
	// fetchGate, when set, blocks FetchNotifiable until released.
	fetchGate chan struct{}

	fetchCalls int
	recordErrs map[int64]int // id -> remaining RecordSent failures
	recorded   map[int64]int // id -> successful RecordSent calls
}

func newFakeStore(appts ...store.Appointment) *fakeStore {
	return &fakeStore{
		appts:      appts,
		recorded:   map[int64]int{},
		recordErrs: map[int64]int{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func (f *fakeStore) FetchNotifiable(ctx context.Context, now time.Time) ([]store.Appointment, error) {
	f.mu.Lock()
	f.fetchCalls++
	gate := f.fetchGate
	err := f.fetchErr
	var out []store.Appointment
	for _, a := range f.appts {
		if f.recorded[a.ID] == 0 {
			out = append(out, a)
		}
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeStore) RecordSent(ctx context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErrs[id] > 0 {
		f.recordErrs[id]--
		return errors.New("store write failed")
	}
	f.recorded[id]++
	return nil
}

func (f *fakeStore) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func (f *fakeStore) recordedCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recorded[id]
}

// fakeSession records sends and fails those addressed to failAddrs.
type fakeSession struct {
	mu        sync.Mutex
	sent      []string // addresses in send order
	failAddrs map[string]bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{failAddrs: map[string]bool{}}
}

func (s *fakeSession) SendText(ctx context.Context, address, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, address)
	if s.failAddrs[address] {
		return errors.New("send failed")
	}
	return nil
}

func (s *fakeSession) Disconnect() {}

func (s *fakeSession) sends() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// fixedSource hands out one session (or an error).
type fixedSource struct {
	sess transport.Session
	err  error
}

func (f fixedSource) Current() (transport.Session, error) { return f.sess, f.err }
