package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	logx "remindbot/pkg/logx"
)

const (
	kindSQLite = "sqlite"
	kindMySQL  = "mysql"
)

// sqlStore serves both drivers; only the upsert clause and the time
// representation differ per dialect. SQLite holds timestamps as RFC3339
// UTC strings (fixed width, so range comparisons stay correct), MySQL as
// native DATETIME values.
type sqlStore struct {
	db   *sql.DB
	log  logx.Logger
	cfg  Config
	kind string
}

const eligibleQuery = `
SELECT a.id, a.client_name, a.scheduled_at, a.contact
FROM appointments a
WHERE a.status = 'scheduled'
  AND a.scheduled_at > ?
  AND a.scheduled_at <= ?
  AND NOT EXISTS (
    SELECT 1 FROM wa_notifications w
    WHERE w.appointment_id = a.id AND w.sent = 1
  )
ORDER BY a.scheduled_at ASC`

const upsertSQLite = `
INSERT INTO wa_notifications(appointment_id, sent, sent_at) VALUES(?, 1, ?)
ON CONFLICT(appointment_id) DO UPDATE SET sent = 1, sent_at = excluded.sent_at`

const upsertMySQL = `
INSERT INTO wa_notifications(appointment_id, sent, sent_at) VALUES(?, 1, ?)
ON DUPLICATE KEY UPDATE sent = 1, sent_at = VALUES(sent_at)`

func (s *sqlStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

func (s *sqlStore) FetchNotifiable(ctx context.Context, now time.Time) ([]Appointment, error) {
	lower := now.Add(s.cfg.MinLead)
	upper := now.Add(s.cfg.Window)

	rows, err := s.db.QueryContext(ctx, eligibleQuery, s.timeArg(lower), s.timeArg(upper))
	if err != nil {
		return nil, fmt.Errorf("store: fetch notifiable: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := s.scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("store: fetch notifiable: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: fetch notifiable: %w", err)
	}
	return out, nil
}

func (s *sqlStore) RecordSent(ctx context.Context, appointmentID int64, at time.Time) error {
	q := upsertSQLite
	if s.kind == kindMySQL {
		q = upsertMySQL
	}
	if _, err := s.db.ExecContext(ctx, q, appointmentID, s.timeArg(at)); err != nil {
		return fmt.Errorf("store: record sent for appointment %d: %w", appointmentID, err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlStore) timeArg(t time.Time) any {
	if s.kind == kindSQLite {
		return t.UTC().Format(time.RFC3339)
	}
	return t.UTC()
}

func (s *sqlStore) scanAppointment(rows *sql.Rows) (Appointment, error) {
	var a Appointment
	if s.kind == kindSQLite {
		var sched string
		if err := rows.Scan(&a.ID, &a.ClientName, &sched, &a.Contact); err != nil {
			return a, err
		}
		t, err := time.Parse(time.RFC3339, sched)
		if err != nil {
			return a, fmt.Errorf("appointment %d: bad scheduled_at %q: %w", a.ID, sched, err)
		}
		a.ScheduledAt = t
		return a, nil
	}
	if err := rows.Scan(&a.ID, &a.ClientName, &a.ScheduledAt, &a.Contact); err != nil {
		return a, err
	}
	return a, nil
}
