// Package rlog wires a process-wide log sink into dlib's dlog facade,
// backed by a logrus.Logger.
package rlog

import (
	"context"
	"path/filepath"

	"github.com/datawire/dlib/dlog"
	"github.com/sirupsen/logrus"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/config"
)

// microsecondFormatter renders "[2006-01-02 15:04:05.000000] [<level>] "
// prefixes at microsecond timestamp precision, where <level> is the
// logrus level name (e.g. "debug").
type microsecondFormatter struct{}

func (microsecondFormatter) Format(e *logrus.Entry) ([]byte, error) {
	line := "[" + e.Time.Format("2006-01-02 15:04:05.000000") + "] [" + e.Level.String() + "] " + e.Message + "\n"
	return []byte(line), nil
}

// discardWriter satisfies io.Writer by dropping everything; used when
// logging is disabled so dlog calls remain cheap no-ops.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Init builds the process-wide logger for role ("client" or "server")
// and returns a context carrying it. When cfg.LogEnabled is false the
// logger discards everything.
func Init(ctx context.Context, cfg config.Config, role string) (context.Context, error) {
	logger := logrus.New()
	logger.SetFormatter(microsecondFormatter{})

	if !cfg.LogEnabled {
		logger.SetOutput(discardWriter{})
		logger.SetLevel(logrus.PanicLevel)
		return dlog.WithLogger(ctx, dlog.WrapLogrus(logger)), nil
	}

	name := role + "_log.txt"
	if cfg.LogDir != "" {
		name = filepath.Join(cfg.LogDir, name)
	}
	f, err := openLogFile(name)
	if err != nil {
		return ctx, err
	}
	logger.SetOutput(f)
	logger.SetLevel(logrus.TraceLevel)
	return dlog.WithLogger(ctx, dlog.WrapLogrus(logger)), nil
}
