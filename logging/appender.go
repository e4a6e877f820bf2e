package logging

import (
	"io"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the time format used by the stdout and test appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. A subset of the `zapcore.Core` interface.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed.
	Sync() error
}

type consoleAppender struct {
	encoder zapcore.Encoder
	out     zapcore.WriteSyncer
}

// NewWriterAppender creates a new appender that outputs to w.
func NewWriterAppender(w io.Writer) Appender {
	cfg := NewZapLoggerConfig()
	return &consoleAppender{
		encoder: zapcore.NewConsoleEncoder(cfg.EncoderConfig),
		out:     zapcore.Lock(zapcore.AddSync(w)),
	}
}

// NewFileAppender creates an appender writing to a size rotated file. The returned closer releases
// the file.
func NewFileAppender(filename string) (Appender, io.Closer) {
	out := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    16,
		MaxBackups: 2,
		Compress:   true,
	}
	return NewWriterAppender(out), out
}

func (app *consoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	buf, err := app.encoder.EncodeEntry(entry, fields)
	if err != nil {
		return err
	}
	defer buf.Free()
	_, err = app.out.Write(buf.Bytes())
	return err
}

func (app *consoleAppender) Sync() error {
	return app.out.Sync()
}

type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns a logger appender that logs to the underlying `testing.TB`
// object so log lines are attributed to the test that produced them.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb}
}

// Write outputs the log entry to the underlying test object `Log` method.
func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	const maxLength = 10
	toPrint := make([]string, 0, maxLength)
	toPrint = append(toPrint, entry.Time.Format(DefaultTimeFormatStr))

	toPrint = append(toPrint, strings.ToUpper(entry.Level.String()))
	toPrint = append(toPrint, entry.LoggerName)
	if entry.Caller.Defined {
		toPrint = append(toPrint, entry.Caller.TrimmedPath())
	}
	toPrint = append(toPrint, entry.Message)
	if len(fields) == 0 {
		tapp.tb.Log(strings.Join(toPrint, "\t"))
		return nil
	}

	// Use zap's json encoder which will encode our slice of fields in-order.
	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		tapp.tb.Log(strings.Join(toPrint, "\t"))
		return err
	}
	toPrint = append(toPrint, string(buf.Bytes()))
	tapp.tb.Log(strings.Join(toPrint, "\t"))
	return nil
}

// Sync is a no-op.
func (tapp *testAppender) Sync() error {
	return nil
}
