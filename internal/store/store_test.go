package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	logx "remindbot/pkg/logx"
)

func newTestStore(t *testing.T) *sqlStore {
	t.Helper()
	st, err := Open(Config{
		Driver:  "sqlite",
		Path:    filepath.Join(t.TempDir(), "test.db"),
		Window:  26 * time.Hour,
		MinLead: time.Hour,
	}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st.(*sqlStore)
}

func insertAppointment(t *testing.T, s *sqlStore, id int64, name string, at time.Time, contact, status string) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO appointments(id, client_name, scheduled_at, contact, status) VALUES(?,?,?,?,?)`,
		id, name, at.UTC().Format(time.RFC3339), contact, status)
	require.NoError(t, err)
}

func TestFetchNotifiableWindow(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	insertAppointment(t, s, 1, "too soon", now.Add(30*time.Minute), "111", "scheduled")
	insertAppointment(t, s, 2, "in two hours", now.Add(2*time.Hour), "222", "scheduled")
	insertAppointment(t, s, 3, "already notified", now.Add(3*time.Hour), "333", "scheduled")
	insertAppointment(t, s, 4, "in 25 hours", now.Add(25*time.Hour), "444", "scheduled")
	insertAppointment(t, s, 5, "too far", now.Add(27*time.Hour), "555", "scheduled")
	insertAppointment(t, s, 6, "cancelled", now.Add(2*time.Hour), "666", "cancelled")

	require.NoError(t, s.RecordSent(context.Background(), 3, now))

	got, err := s.FetchNotifiable(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(2), got[0].ID)
	require.Equal(t, int64(4), got[1].ID)
	require.Equal(t, "in two hours", got[0].ClientName)
	require.Equal(t, "222", got[0].Contact)
}

func TestFetchNotifiableOrdering(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	// Inserted out of order; results must come back ascending.
	insertAppointment(t, s, 1, "later", now.Add(20*time.Hour), "111", "scheduled")
	insertAppointment(t, s, 2, "sooner", now.Add(2*time.Hour), "222", "scheduled")
	insertAppointment(t, s, 3, "middle", now.Add(10*time.Hour), "333", "scheduled")

	got, err := s.FetchNotifiable(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		require.True(t, got[i-1].ScheduledAt.Before(got[i].ScheduledAt),
			"expected ascending scheduled_at, got %v before %v", got[i-1].ScheduledAt, got[i].ScheduledAt)
	}
}

func TestFetchNotifiableEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.FetchNotifiable(context.Background(), time.Now())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRecordSentIdempotent(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	insertAppointment(t, s, 7, "client", now.Add(2*time.Hour), "777", "scheduled")

	require.NoError(t, s.RecordSent(context.Background(), 7, now))
	require.NoError(t, s.RecordSent(context.Background(), 7, now.Add(time.Minute)))
	require.NoError(t, s.RecordSent(context.Background(), 7, now.Add(2*time.Minute)))

	var count int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM wa_notifications WHERE appointment_id = 7 AND sent = 1`).Scan(&count))
	require.Equal(t, 1, count)

	// And the appointment is no longer eligible.
	got, err := s.FetchNotifiable(context.Background(), now)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRecordSentUpdatesTimestamp(t *testing.T) {
	s := newTestStore(t)
	first := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, s.RecordSent(context.Background(), 9, first))
	require.NoError(t, s.RecordSent(context.Background(), 9, second))

	var sentAt string
	require.NoError(t, s.db.QueryRow(
		`SELECT sent_at FROM wa_notifications WHERE appointment_id = 9`).Scan(&sentAt))
	require.Equal(t, second.Format(time.RFC3339), sentAt)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(Config{Driver: "postgres", Window: time.Hour}, logx.Nop())
	require.Error(t, err)

	_, err = Open(Config{Driver: "sqlite", Path: "x.db"}, logx.Nop())
	require.Error(t, err, "zero window must be rejected")

	_, err = Open(Config{Driver: "sqlite", Path: "x.db", Window: time.Hour, MinLead: 2 * time.Hour}, logx.Nop())
	require.Error(t, err, "min lead beyond window must be rejected")

	_, err = Open(Config{Driver: "sqlite", Window: 26 * time.Hour, MinLead: time.Hour}, logx.Nop())
	require.Error(t, err, "sqlite requires a path")
}
