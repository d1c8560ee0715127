// Package whatsapp implements transport.Provider on top of whatsmeow.
//
// Credential material lives in whatsmeow's sqlstore container and is
// written through by the library whenever the protocol rotates keys, so a
// paired identity survives process restarts. When no identity is stored
// yet, the pairing QR code is rendered on the terminal.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type Config struct {
	// StorePath is the sqlite file holding the credential container.
	StorePath string
	// PrintQR renders the pairing QR code on the terminal when no stored
	// identity exists yet.
	PrintQR bool
}

type Provider struct {
	cfg       Config
	log       logx.Logger
	container *sqlstore.Container
}

func NewProvider(cfg Config, log logx.Logger) (*Provider, error) {
	if strings.TrimSpace(cfg.StorePath) == "" {
		return nil, errors.New("whatsapp: store path is required")
	}
	if dir := filepath.Dir(cfg.StorePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	container, err := sqlstore.New("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", cfg.StorePath), newWALog(log))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: opening credential store: %w", err)
	}
	return &Provider{cfg: cfg, log: log, container: container}, nil
}

// Connect dials WhatsApp with the stored credentials. Session readiness
// and closes are reported on the returned event stream; whatsmeow's own
// auto-reconnect is disabled because the session manager owns that policy.
func (p *Provider) Connect(ctx context.Context) (transport.Session, <-chan transport.Event, error) {
	device, err := p.container.GetFirstDevice()
	if err != nil {
		return nil, nil, fmt.Errorf("whatsapp: loading device: %w", err)
	}

	client := whatsmeow.NewClient(device, newWALog(p.log))
	client.EnableAutoReconnect = false

	sess := &liveSession{client: client}
	stream := &eventStream{ch: make(chan transport.Event, 16)}

	client.AddEventHandler(func(evt any) {
		switch e := evt.(type) {
		case *events.Connected:
			stream.emit(transport.Event{Kind: transport.EventOpened})
		case *events.PairSuccess:
			stream.emit(transport.Event{Kind: transport.EventCredentials})
		case *events.LoggedOut:
			stream.closeWith(transport.Event{
				Kind:       transport.EventClosed,
				Reason:     "logged out",
				StatusCode: int(e.Reason),
				Terminal:   true,
			})
		case *events.StreamError:
			stream.closeWith(transport.Event{
				Kind:   transport.EventClosed,
				Reason: "stream error: " + e.Code,
			})
		case *events.Disconnected:
			stream.closeWith(transport.Event{
				Kind:   transport.EventClosed,
				Reason: "transport disconnected",
			})
		}
	})

	if client.Store.ID == nil {
		// No stored identity: pairing flow. The QR channel must be
		// requested before dialing.
		qrCh, err := client.GetQRChannel(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("whatsapp: qr channel: %w", err)
		}
		if err := client.Connect(); err != nil {
			return nil, nil, fmt.Errorf("whatsapp: connect: %w", err)
		}
		go p.pumpQR(qrCh)
	} else {
		if err := client.Connect(); err != nil {
			return nil, nil, fmt.Errorf("whatsapp: connect: %w", err)
		}
	}

	return sess, stream.ch, nil
}

func (p *Provider) pumpQR(qrCh <-chan whatsmeow.QRChannelItem) {
	for item := range qrCh {
		switch item.Event {
		case "code":
			if p.cfg.PrintQR {
				p.log.Info("scan the QR code below to pair this device")
				qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, os.Stdout)
			} else {
				p.log.Info("pairing required", logx.String("qr", item.Code))
			}
		case "timeout":
			p.log.Warn("pairing QR code expired before it was scanned")
		case "success":
			p.log.Info("pairing complete")
		}
	}
}

// ---- session ----

type liveSession struct {
	client *whatsmeow.Client
}

func (s *liveSession) SendText(ctx context.Context, address, body string) error {
	jid, err := types.ParseJID(address)
	if err != nil {
		return fmt.Errorf("whatsapp: bad address %q: %w", address, err)
	}
	_, err = s.client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: proto.String(body),
	})
	if err != nil {
		return fmt.Errorf("whatsapp: send to %s: %w", address, err)
	}
	return nil
}

func (s *liveSession) Disconnect() { s.client.Disconnect() }

// ---- event stream ----

// eventStream delivers lifecycle events to the session manager. Exactly
// one Closed event terminates the stream; whatsmeow can surface several
// teardown events for one disconnect (StreamError then Disconnected) and
// only the first one wins.
type eventStream struct {
	mu     sync.Mutex
	ch     chan transport.Event
	closed bool
}

func (s *eventStream) emit(ev transport.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

func (s *eventStream) closeWith(ev transport.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	select {
	case s.ch <- ev:
	default:
	}
	close(s.ch)
}
