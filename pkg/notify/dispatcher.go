package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/ivrdesk/pkg/logger"
	"github.com/papercomputeco/ivrdesk/pkg/metrics"
)

// DefaultTimeout bounds a single dispatch across all sinks.
const DefaultTimeout = 30 * time.Second

// Dispatcher fans summaries out to sinks on background goroutines.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A non-positive timeout uses DefaultTimeout.
func NewDispatcher(logger *zap.Logger, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		sinks:   sinks,
		timeout: timeout,
		logger:  logger,
	}
}

// Dispatch returns immediately; delivery happens in the background.
func (d *Dispatcher) Dispatch(s Summary) {
	if s.EndedAt.IsZero() {
		s.EndedAt = time.Now()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		for _, sink := range d.sinks {
			err := d.send(ctx, sink, s)
			metrics.RecordNotification(sink.Name(), err)
			if err != nil {
				d.logger.Error("notification failed",
					logger.CallID(s.CallID),
					zap.String("sink", sink.Name()),
					zap.Error(err),
				)
				continue
			}
			d.logger.Info("notification sent",
				logger.CallID(s.CallID),
				zap.String("sink", sink.Name()),
			)
		}
	}()
}

// send isolates a single sink so a panic in one does not skip the others.
func (d *Dispatcher) send(ctx context.Context, sink Sink, s Summary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Send(ctx, s)
}

// Close waits for in-flight dispatches.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}
