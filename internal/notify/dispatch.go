package notify

import (
	"context"
	"time"

	"remindbot/internal/store"
	logx "remindbot/pkg/logx"
)

const recordRetryPause = 250 * time.Millisecond

// dispatch sends one reminder and records it. Any error means "not
// notified": without a sent record the appointment stays eligible and is
// retried on the next tick.
//
// The send and the record write hit two different systems, so there is no
// transaction spanning both. If the send succeeds and every record attempt
// fails, the recipient may get a duplicate reminder on a later cycle;
// bounded immediate retries of the write keep that window small.
func (s *Service) dispatch(ctx context.Context, log logx.Logger, a store.Appointment) error {
	log = log.With(logx.Int64("appointment", a.ID))

	sess, err := s.sessions.Current()
	if err != nil {
		log.Warn("skipping, session not open", logx.Err(err))
		return err
	}

	addr, err := NormalizeContact(a.Contact, s.cfg.AddressSuffix)
	if err != nil {
		log.Warn("skipping, unusable contact",
			logx.String("contact", a.Contact), logx.Err(err))
		return err
	}

	body := RenderReminder(a.ClientName, a.ScheduledAt, s.loc)

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := sess.SendText(ctx, addr, body); err != nil {
		log.Warn("send failed, will retry next cycle",
			logx.String("client", a.ClientName), logx.Err(err))
		return err
	}
	log.Info("reminder sent",
		logx.String("client", a.ClientName),
		logx.String("address", addr),
		logx.Time("scheduled_at", a.ScheduledAt))

	var recErr error
	for attempt := 0; attempt <= s.cfg.RecordRetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(recordRetryPause):
			}
		}
		if recErr = s.store.RecordSent(ctx, a.ID, time.Now()); recErr == nil {
			log.Debug("notification recorded")
			return nil
		}
	}
	// Message went out but the store does not know. The appointment stays
	// eligible, so a duplicate reminder on a later cycle is now possible.
	log.Error("reminder sent but record write failed", logx.Err(recErr))
	return recErr
}
