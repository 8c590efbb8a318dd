package notify

import (
	"context"
	"errors"
)

// Fanout delivers each event to every configured sink. Delivery errors are
// joined so one failing sink never hides another's.
type Fanout []Sink

// Send implements the Sink interface.
func (f Fanout) Send(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Send(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CriticalOnly wraps a sink so it only receives critical events. Used for
// paging sinks that should not fire on informational traffic.
func CriticalOnly(sink Sink) Sink {
	return SinkFunc(func(ctx context.Context, event Event) error {
		if event.Severity != SeverityCritical {
			return nil
		}
		return sink.Send(ctx, event)
	})
}
