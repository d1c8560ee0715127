package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"remindbot/internal/config"
	"remindbot/internal/eventbus"
	"remindbot/internal/notify"
	"remindbot/internal/runtime/supervisor"
	"remindbot/internal/session"
	"remindbot/internal/store"
	"remindbot/internal/transport/whatsapp"
	logx "remindbot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml/json")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer logSvc.Close()
	log = log.With(logx.String("comp", "app"))

	// Config mapping: durations stay strings in config and become typed here.
	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return err
	}
	pingTimeout, err := config.ParseDurationOrDefault("storage.ping_timeout", cfg.Storage.PingTimeout, 10*time.Second)
	if err != nil {
		return err
	}
	window, err := config.ParseDurationOrDefault("notify.window", cfg.Notify.Window, 26*time.Hour)
	if err != nil {
		return err
	}
	minLead, err := config.ParseDurationOrDefault("notify.min_lead", cfg.Notify.MinLead, time.Hour)
	if err != nil {
		return err
	}
	interval, err := config.ParseDurationOrDefault("notify.interval", cfg.Notify.Interval, 5*time.Minute)
	if err != nil {
		return err
	}
	reconnectDelay, err := config.ParseDurationOrDefault("session.reconnect_delay", cfg.Session.ReconnectDelay, 2*time.Second)
	if err != nil {
		return err
	}

	st, err := store.Open(store.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
		Window:      window,
		MinLead:     minLead,
	}, logSvc.Logger().With(logx.String("comp", "store")))
	if err != nil {
		return err
	}
	defer st.Close()

	// An unreachable store at startup is fatal; running blind would just
	// burn reconnects for nothing. Transient store errors later are not.
	pctx, pcancel := context.WithTimeout(ctx, pingTimeout)
	err = st.Ping(pctx)
	pcancel()
	if err != nil {
		return err
	}
	log.Info("appointment store reachable", logx.String("driver", cfg.Storage.Driver))

	printQR := true
	if cfg.WhatsApp.PrintQR != nil {
		printQR = *cfg.WhatsApp.PrintQR
	}
	provider, err := whatsapp.NewProvider(whatsapp.Config{
		StorePath: cfg.WhatsApp.StorePath,
		PrintQR:   printQR,
	}, logSvc.Logger().With(logx.String("comp", "whatsapp")))
	if err != nil {
		return err
	}

	bus := eventbus.New()
	mgr := session.NewManager(session.Config{ReconnectDelay: reconnectDelay},
		provider, bus, logSvc.Logger().With(logx.String("comp", "session")))
	svc, err := notify.New(notify.Config{
		Interval:       interval,
		Timezone:       cfg.Notify.Timezone,
		AddressSuffix:  cfg.Notify.AddressSuffix,
		RatePerSec:     cfg.Notify.RatePerSec,
		RecordRetryMax: cfg.Notify.RecordRetryMax,
	}, st, mgr, bus, logSvc.Logger().With(logx.String("comp", "notify")))
	if err != nil {
		return err
	}

	sup := supervisor.New(ctx,
		supervisor.WithLogger(log),
		supervisor.WithCancelOnError(true))
	sup.Go("session", mgr.Run)
	sup.Go("notify", svc.Run)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	log.Info("remindbot started")

	<-sup.Context().Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	log.Info("shutting down")
	if err := sup.Stop(10 * time.Second); err != nil {
		log.Warn("shutdown incomplete", logx.Err(err))
	}

	if err := sup.Err(); err != nil && !errors.Is(err, context.Canceled) {
		// Typically session.ErrLoggedOut: surface it so the operator knows
		// re-pairing is required.
		return err
	}
	return nil
}
