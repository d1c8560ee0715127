// Package session owns the messaging connection: one logical session kept
// alive across disconnects. The state machine is connecting -> open ->
// closed, re-entering connecting on every recoverable close. A terminal
// close (logged out) stops the loop; the stored credentials are invalid
// and only re-pairing can help.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"remindbot/internal/eventbus"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

var (
	// ErrLoggedOut means the network invalidated the session credentials.
	ErrLoggedOut = errors.New("session logged out, re-pairing required")

	// ErrNotOpen is returned by Current when no handshake has completed.
	ErrNotOpen = errors.New("session not open")
)

type Config struct {
	// ReconnectDelay is the pause before re-dialing after a recoverable
	// close. This is the slot where backoff would go if flat delay ever
	// proves too aggressive.
	ReconnectDelay time.Duration
}

type Manager struct {
	cfg      Config
	provider transport.Provider
	bus      eventbus.Bus
	log      logx.Logger

	mu    sync.Mutex
	state State
	sess  transport.Session
}

func NewManager(cfg Config, provider transport.Provider, bus eventbus.Bus, log logx.Logger) *Manager {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 2 * time.Second
	}
	return &Manager{
		cfg:      cfg,
		provider: provider,
		bus:      bus,
		log:      log,
		state:    State{Phase: PhaseConnecting},
	}
}

// State returns a snapshot of the connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the active session, or ErrNotOpen.
func (m *Manager) Current() (transport.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase != PhaseOpen || m.sess == nil {
		return nil, ErrNotOpen
	}
	return m.sess, nil
}

// Run drives the connect/reconnect loop until ctx is canceled or the
// session terminates. Reconnection on recoverable closes is unconditional
// and indefinite: the dispatcher is expected to stay alive forever.
func (m *Manager) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.setConnecting()
		sess, events, err := m.provider.Connect(ctx)
		if err != nil {
			// Pre-handshake failure: same treatment as a recoverable close.
			m.setClosed("connect: "+err.Error(), 0, false)
			m.log.Warn("connect failed, will retry", logx.Err(err))
			if !m.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		terminal := m.consume(ctx, sess, events)
		if terminal {
			return ErrLoggedOut
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !m.pause(ctx) {
			return ctx.Err()
		}
	}
}

// consume processes one session's event stream until it closes.
// Returns true when the close was terminal.
func (m *Manager) consume(ctx context.Context, sess transport.Session, events <-chan transport.Event) bool {
	for {
		select {
		case <-ctx.Done():
			sess.Disconnect()
			m.setClosed("shutdown", 0, false)
			return false

		case ev, ok := <-events:
			if !ok {
				// Stream ended without an explicit close. Treat as a
				// recoverable disconnect.
				sess.Disconnect()
				m.setClosed("event stream ended", 0, false)
				m.log.Warn("session event stream ended, reconnecting")
				return false
			}
			switch ev.Kind {
			case transport.EventOpened:
				m.setOpen(sess)
				m.log.Info("session open")

			case transport.EventCredentials:
				// Write-through save happens inside the provider; this is
				// observability only.
				m.log.Debug("session credentials updated")

			case transport.EventClosed:
				// The provider may still hold its socket and handler
				// goroutines after reporting the close; tear the session
				// down before dialing a new one.
				sess.Disconnect()
				m.setClosed(ev.Reason, ev.StatusCode, ev.Terminal)
				if ev.Terminal {
					m.log.Error("session closed permanently",
						logx.String("reason", ev.Reason),
						logx.Int("code", ev.StatusCode))
					return true
				}
				m.log.Warn("session closed, reconnecting",
					logx.String("reason", ev.Reason),
					logx.Int("code", ev.StatusCode))
				return false
			}
		}
	}
}

// pause waits the reconnect delay; false means ctx was canceled.
func (m *Manager) pause(ctx context.Context) bool {
	t := time.NewTimer(m.cfg.ReconnectDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (m *Manager) setConnecting() {
	m.mu.Lock()
	m.state = State{Phase: PhaseConnecting}
	m.sess = nil
	m.mu.Unlock()
}

func (m *Manager) setOpen(sess transport.Session) {
	m.mu.Lock()
	m.state = State{Phase: PhaseOpen}
	m.sess = sess
	m.mu.Unlock()
	m.bus.Publish(eventbus.Event{Topic: eventbus.TopicSessionOpened})
}

func (m *Manager) setClosed(reason string, code int, terminal bool) {
	m.mu.Lock()
	m.state = State{Phase: PhaseClosed, Reason: reason, Code: code, Terminal: terminal}
	m.sess = nil
	m.mu.Unlock()

	topic := eventbus.TopicSessionClosed
	if terminal {
		topic = eventbus.TopicSessionTerminal
	}
	m.bus.Publish(eventbus.Event{Topic: topic, Data: ClosedEvent{Reason: reason, Code: code, Terminal: terminal}})
}
