package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"remindbot/internal/eventbus"
	"remindbot/internal/store"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type Config struct {
	Interval       time.Duration // polling cadence, default 5m
	Timezone       string        // IANA TZ reminders are rendered in
	AddressSuffix  string        // messaging network address suffix
	RatePerSec     int           // outbound send throttle
	RecordRetryMax int           // immediate retries of the sent-record write
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = "America/Sao_Paulo"
	}
	if strings.TrimSpace(c.AddressSuffix) == "" {
		c.AddressSuffix = "s.whatsapp.net"
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 1
	}
	if c.RecordRetryMax <= 0 {
		c.RecordRetryMax = 2
	}
	return c
}

// SessionSource yields the active messaging session, if any.
// Satisfied by *session.Manager.
type SessionSource interface {
	Current() (transport.Session, error)
}

// CycleSummary is the bus payload for notify.cycle_done.
type CycleSummary struct {
	Found  int
	Sent   int
	Failed int
	Took   time.Duration
}

type Service struct {
	cfg      Config
	store    store.Store
	sessions SessionSource
	bus      eventbus.Bus
	log      logx.Logger

	events <-chan eventbus.Event
	unsub  func()

	loc     *time.Location
	limiter *rate.Limiter

	startOnce sync.Once
	inFlight  atomic.Bool

	mu sync.Mutex
	c  *cron.Cron
}

func New(cfg Config, st store.Store, sessions SessionSource, bus eventbus.Bus, log logx.Logger) (*Service, error) {
	cfg = cfg.withDefaults()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("notify: invalid timezone %q: %w", cfg.Timezone, err)
	}

	// Subscribe here, not in Run: the session handshake races the worker
	// goroutines, and an open published before Run is scheduled must not
	// be dropped.
	ch, unsub := bus.Subscribe(16)

	return &Service{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		bus:      bus,
		log:      log,
		events:   ch,
		unsub:    unsub,
		loc:      loc,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}, nil
}

// Run blocks until ctx is canceled. The polling cadence is armed exactly
// once, on the first session-open event; reconnects later in the process
// lifetime do not re-arm or restart it.
func (s *Service) Run(ctx context.Context) error {
	defer s.unsub()

	for {
		select {
		case <-ctx.Done():
			s.stop()
			return ctx.Err()
		case ev, ok := <-s.events:
			if !ok {
				s.stop()
				return nil
			}
			if ev.Topic != eventbus.TopicSessionOpened {
				continue
			}
			s.startOnce.Do(func() { s.start(ctx) })
		}
	}
}

func (s *Service) start(ctx context.Context) {
	s.log.Info("scheduler starting",
		logx.Duration("interval", s.cfg.Interval),
		logx.String("tz", s.loc.String()))

	// First cycle runs immediately; the timer only covers the steady state.
	s.runCycle(ctx)

	c := cron.New(cron.WithLocation(s.loc))
	_, err := c.AddFunc(fmt.Sprintf("@every %s", s.cfg.Interval), func() {
		s.runCycle(ctx)
	})
	if err != nil {
		// Interval comes from validated config; this is a programming error.
		s.log.Error("arming polling timer failed", logx.Err(err))
		return
	}
	c.Start()

	s.mu.Lock()
	s.c = c
	s.mu.Unlock()
}

func (s *Service) stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// runCycle executes one polling cycle. A store failure aborts the cycle
// but never the cadence; per-appointment failures never abort the batch.
func (s *Service) runCycle(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Warn("previous polling cycle still running, skipping tick")
		return
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	log := s.log.With(logx.String("cycle", uuid.NewString()[:8]))
	log.Debug("checking for pending appointment reminders")

	appts, err := s.store.FetchNotifiable(ctx, start)
	if err != nil {
		log.Error("fetching notifiable appointments failed", logx.Err(err))
		return
	}
	if len(appts) == 0 {
		log.Debug("no appointments pending notification")
		return
	}
	log.Info("appointments pending notification", logx.Int("count", len(appts)))

	var sent, failed int
	for _, a := range appts {
		if ctx.Err() != nil {
			break
		}
		if err := s.dispatch(ctx, log, a); err != nil {
			failed++
		} else {
			sent++
		}
	}

	took := time.Since(start)
	log.Info("polling cycle done",
		logx.Int("found", len(appts)),
		logx.Int("sent", sent),
		logx.Int("failed", failed),
		logx.Duration("took", took))
	s.bus.Publish(eventbus.Event{
		Topic: eventbus.TopicCycleDone,
		Data:  CycleSummary{Found: len(appts), Sent: sent, Failed: failed, Took: took},
	})
}
