package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	logx "remindbot/pkg/logx"

	_ "github.com/go-sql-driver/mysql"
)

func openMySQL(cfg Config, log logx.Logger) (Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("mysql dsn is required")
	}
	// DATETIME columns must come back as time.Time.
	if !strings.Contains(dsn, "parseTime") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &sqlStore{db: db, log: log, cfg: cfg, kind: kindMySQL}, nil
}
