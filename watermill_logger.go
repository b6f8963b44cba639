package orgvclient

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// watermillLogger routes watermill's internal logging through the client's
// slog handler instead of a separate stdlib logger.
type watermillLogger struct {
	logger *slog.Logger
}

func newWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermillLogger{logger: logger}
}

func (w watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.logger.Error(msg, append(w.args(fields), slog.Any("err", err))...)
}

func (w watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.logger.Info(msg, w.args(fields)...)
}

func (w watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debug(msg, w.args(fields)...)
}

func (w watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.logger.Debug(msg, w.args(fields)...)
}

func (w watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{logger: w.logger.With(w.args(fields)...)}
}

func (w watermillLogger) args(fields watermill.LogFields) []any {
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
