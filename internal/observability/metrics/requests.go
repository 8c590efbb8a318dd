package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/openfolio/portfolio-api/internal/observability/errors"
	"github.com/openfolio/portfolio-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// HTTPRequestMetric captures details about a served request for metric emission.
type HTTPRequestMetric struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
}

// EmitHTTPRequest emits standardised request metrics.
func EmitHTTPRequest(sink statsd.Sink, in HTTPRequestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"method": in.Method,
		"path":   in.Path,
		"status": strconv.Itoa(in.Status),
	}

	sink.Count("http.request", 1, tags)

	if in.Duration > 0 {
		sink.Timing("http.request.duration", in.Duration, CloneTags(tags))
	}
}

// AuthEventMetric captures details about an authentication lifecycle event.
type AuthEventMetric struct {
	// Event is the lifecycle step: login, logout, refresh, role_resolve.
	Event  string
	Result string
	Err    error
}

// EmitAuthEvent emits standardised authentication metrics.
func EmitAuthEvent(sink statsd.Sink, in AuthEventMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"event":  in.Event,
		"result": in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.event", 1, tags)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
