package whatsapp

import (
	"fmt"

	waLog "go.mau.fi/whatsmeow/util/log"

	logx "remindbot/pkg/logx"

	// whatsmeow's sqlstore speaks database/sql with the "sqlite3" dialect.
	_ "github.com/mattn/go-sqlite3"
)

// waLogger bridges whatsmeow's logger interface onto logx so library
// output lands in the same sinks as ours. Library noise goes out at debug.
type waLogger struct {
	log logx.Logger
}

func newWALog(log logx.Logger) waLog.Logger {
	return &waLogger{log: log.With(logx.String("comp", "whatsmeow"))}
}

func (w *waLogger) Errorf(msg string, args ...any) { w.log.Error(fmt.Sprintf(msg, args...)) }
func (w *waLogger) Warnf(msg string, args ...any)  { w.log.Warn(fmt.Sprintf(msg, args...)) }
func (w *waLogger) Infof(msg string, args ...any)  { w.log.Debug(fmt.Sprintf(msg, args...)) }
func (w *waLogger) Debugf(msg string, args ...any) { w.log.Debug(fmt.Sprintf(msg, args...)) }

func (w *waLogger) Sub(module string) waLog.Logger {
	return &waLogger{log: w.log.With(logx.String("sub", module))}
}
