package store

import (
	"context"
	"time"
)

// Appointment is one scheduled client visit, read-only from our side.
type Appointment struct {
	ID          int64
	ClientName  string
	ScheduledAt time.Time
	Contact     string // raw phone-like string, digits mixed with formatting
}

// Config configures the appointment store.
//
// Driver values:
//   - "mysql": the booking system's database (DSN must set parseTime=true)
//   - "sqlite": local database file, schema applied on open
type Config struct {
	Driver      string
	DSN         string        // mysql
	Path        string        // sqlite
	BusyTimeout time.Duration // sqlite only; 0 means default

	// Window and MinLead bound eligibility: an appointment qualifies when
	// now+MinLead < scheduled_at <= now+Window.
	Window  time.Duration
	MinLead time.Duration
}

// Store is the persistence API consumed by the dispatch engine.
type Store interface {
	// Ping verifies connectivity. Called once at startup; failure there is
	// fatal for the process.
	Ping(ctx context.Context) error

	// FetchNotifiable returns appointments eligible for a reminder at now,
	// ordered by scheduled time ascending.
	FetchNotifiable(ctx context.Context, now time.Time) ([]Appointment, error)

	// RecordSent upserts the notification record for an appointment.
	// Safe to call repeatedly; at most one sent record per appointment
	// ever exists.
	RecordSent(ctx context.Context, appointmentID int64, at time.Time) error

	Close() error
}
