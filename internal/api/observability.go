package api

import (
	"github.com/sirupsen/logrus"
)

// CallEvent records metadata about a single backend request.
type CallEvent struct {
	RequestID string
	Method    string
	Path      string
	Status    int // 0 when no response was received
	LatencyMs int64
	Err       error
}

// Observer receives events about backend calls for logging.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events to a logrus logger.
type LogObserver struct {
	log logrus.FieldLogger
}

// NewLogObserver creates an Observer that logs events to log.
func NewLogObserver(log logrus.FieldLogger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	entry := o.log.WithFields(logrus.Fields{
		"request_id": event.RequestID,
		"method":     event.Method,
		"path":       event.Path,
		"status":     event.Status,
		"latency_ms": event.LatencyMs,
	})
	switch {
	case event.Err != nil && event.Status == 0:
		entry.WithError(event.Err).Error("api call failed")
	case event.Err != nil:
		entry.WithError(event.Err).Warn("api call rejected")
	default:
		entry.Debug("api call")
	}
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
