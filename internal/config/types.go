package config

type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Session  SessionConfig  `json:"session,omitempty"`
	Notify   NotifyConfig   `json:"notify"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig selects the appointment store backend.
//
// Example:
//
//	"storage": { "driver": "mysql", "dsn": "user:pass@tcp(db:3306)/booking?parseTime=true" }
//	"storage": { "driver": "sqlite", "path": "./remindbot.db" }
type StorageConfig struct {
	Driver string `json:"driver"`
	// DSN is used by the mysql driver.
	DSN string `json:"dsn,omitempty"`
	// Path is used by the sqlite driver.
	Path string `json:"path,omitempty"`
	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty"`
	// PingTimeout bounds the startup reachability check. Default "10s".
	PingTimeout string `json:"ping_timeout,omitempty"`
}

// WhatsAppConfig controls the messaging session provider.
type WhatsAppConfig struct {
	// StorePath is the credential container database (survives restarts).
	StorePath string `json:"store_path"`
	// PrintQR renders the pairing QR code on the terminal when no stored
	// identity exists yet. Default true; set false to log the raw code
	// instead (headless deployments).
	PrintQR *bool `json:"print_qr,omitempty"`
}

// SessionConfig controls the connection state machine.
//
// All durations are Go duration strings (e.g. "500ms", "2s").
type SessionConfig struct {
	// ReconnectDelay is the pause before re-dialing after a recoverable
	// close. Default "2s".
	ReconnectDelay string `json:"reconnect_delay,omitempty"`
}

// NotifyConfig controls the polling scheduler and the dispatch worker.
//
// All durations are Go duration strings (e.g. "5m", "26h").
//
// Defaults (when fields are omitted/zero):
//   - interval: "5m"
//   - window: "26h"
//   - min_lead: "1h"
//   - timezone: "America/Sao_Paulo"
//   - address_suffix: "s.whatsapp.net"
//   - rate_per_sec: 1
//   - record_retry_max: 2
type NotifyConfig struct {
	Interval string `json:"interval,omitempty"`
	// Window is how far ahead of now an appointment may be to qualify.
	Window string `json:"window,omitempty"`
	// MinLead excludes appointments too close to their scheduled moment;
	// those are left to a separate urgent path.
	MinLead string `json:"min_lead,omitempty"`
	// Timezone is the IANA zone reminders are rendered in, regardless of
	// how the store holds the timestamp.
	Timezone string `json:"timezone,omitempty"`
	// AddressSuffix is appended to the normalized contact digits.
	AddressSuffix string `json:"address_suffix,omitempty"`
	// RatePerSec throttles outbound sends.
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// RecordRetryMax bounds the immediate re-tries of the sent-record
	// write after a successful send.
	RecordRetryMax int `json:"record_retry_max,omitempty"`
}
