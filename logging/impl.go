package logging

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level AtomicLevel
	utc   bool
	// fields are written with every entry, ahead of the call's own fields.
	fields    []zapcore.Field
	appenders []Appender
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		utc:       imp.utc,
		fields:    imp.fields,
		appenders: imp.appenders,
	}
}

func (imp *impl) With(keysAndValues ...interface{}) Logger {
	return &impl{
		name:      imp.name,
		level:     imp.level,
		utc:       imp.utc,
		fields:    append(slices.Clip(imp.fields), toFields(keysAndValues)...),
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (imp *impl) Debug(args ...interface{}) { imp.print(DEBUG, args) }
func (imp *impl) Debugf(template string, args ...interface{}) { imp.printf(DEBUG, template, args) }
func (imp *impl) Debugw(msg string, kv ...interface{}) { imp.printw(DEBUG, msg, kv) }
func (imp *impl) Info(args ...interface{}) { imp.print(INFO, args) }
func (imp *impl) Infof(template string, args ...interface{}) { imp.printf(INFO, template, args) }
func (imp *impl) Infow(msg string, kv ...interface{}) { imp.printw(INFO, msg, kv) }
func (imp *impl) Warn(args ...interface{}) { imp.print(WARN, args) }
func (imp *impl) Warnf(template string, args ...interface{}) { imp.printf(WARN, template, args) }
func (imp *impl) Warnw(msg string, kv ...interface{}) { imp.printw(WARN, msg, kv) }
func (imp *impl) Error(args ...interface{}) { imp.print(ERROR, args) }
func (imp *impl) Errorf(template string, args ...interface{}) { imp.printf(ERROR, template, args) }
func (imp *impl) Errorw(msg string, kv ...interface{}) { imp.printw(ERROR, msg, kv) }

// The print helpers format only for enabled levels. Each sits exactly one frame between the
// exported method and write so the caller depth is fixed.
func (imp *impl) print(level Level, args []interface{}) {
	if level >= imp.level.Get() {
		imp.write(level, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) printf(level Level, template string, args []interface{}) {
	if level >= imp.level.Get() {
		imp.write(level, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) printw(level Level, msg string, keysAndValues []interface{}) {
	if level >= imp.level.Get() {
		imp.write(level, msg, toFields(keysAndValues))
	}
}

func (imp *impl) write(level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
		Caller:     callerOf(callerDepth),
	}
	if imp.utc {
		entry.Time = entry.Time.UTC()
	}
	if len(imp.fields) > 0 {
		fields = append(slices.Clip(imp.fields), fields...)
	}
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// toFields pairs odd elements as keys with the following value. An unpaired trailing key is
// kept with an error value.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// callerDepth skips callerOf, write, the print helper and the exported method.
const callerDepth = 4

func callerOf(skip int) zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.NewEntryCaller(pc, file, line, true)
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
