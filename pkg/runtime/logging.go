package runtime

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogSink receives log messages destined for the host's logger callback.
type LogSink func(status Status, category, message string)

// Standard FMI 2.0 log categories produced by the runtime.
const (
	CategoryAll           = "logAll"
	CategoryEvents        = "logEvents"
	CategoryStatusWarning = "logStatusWarning"
	CategoryStatusError   = "logStatusError"
)

// Categories lists the log categories an instance understands.
var Categories = []string{CategoryAll, CategoryEvents, CategoryStatusWarning, CategoryStatusError}

// sinkCore is a zapcore.Core that forwards entries to a LogSink.
type sinkCore struct {
	zapcore.LevelEnabler
	sink   LogSink
	accept func(category string) bool
	fields []zapcore.Field
}

func newSinkCore(sink LogSink, level zapcore.LevelEnabler, accept func(string) bool) zapcore.Core {
	return &sinkCore{LevelEnabler: level, sink: sink, accept: accept}
}

func (c *sinkCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *sinkCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *sinkCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	status, category := classify(ent.Level)
	if c.accept != nil && !c.accept(category) {
		return nil
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	c.sink(status, category, ent.Message+formatFields(enc.Fields))
	return nil
}

func (c *sinkCore) Sync() error { return nil }

func classify(level zapcore.Level) (Status, string) {
	switch {
	case level >= zapcore.ErrorLevel:
		return StatusError, CategoryStatusError
	case level == zapcore.WarnLevel:
		return StatusWarning, CategoryStatusWarning
	case level == zapcore.InfoLevel:
		return StatusOK, CategoryEvents
	default:
		return StatusOK, CategoryAll
	}
}

// formatFields renders fields as " key=value" pairs in key order.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

// instanceLogger builds the logger of one instance: entries go to the
// runtime logger and, filtered by level and category, to the host sink.
func instanceLogger(base *zap.Logger, name string, sink LogSink, level zap.AtomicLevel, accept func(string) bool) *zap.Logger {
	cores := []zapcore.Core{base.With(zap.String("instance", name)).Core()}
	if sink != nil {
		cores = append(cores, newSinkCore(sink, level, accept))
	}
	return zap.New(zapcore.NewTee(cores...))
}

func loggingLevel(on bool) zapcore.Level {
	if on {
		return zapcore.DebugLevel
	}
	return zapcore.ErrorLevel
}
