package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes the summary to the process log.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (l *LogSink) Name() string { return "log" }

func (l *LogSink) Send(_ context.Context, s Summary) error {
	l.logger.Info("call summary",
		zap.String("call_id", s.CallID),
		zap.String("phone", s.Phone),
		zap.Int("turns", len(s.Turns)),
		zap.String("conversation", s.Text()),
	)
	return nil
}
