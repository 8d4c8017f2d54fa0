// Package metrics holds the tag conventions shared by the auth services.
package metrics

import (
	"time"

	obserrors "github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/errors"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// ResolutionMetric describes one uncached role resolution.
type ResolutionMetric struct {
	Role     string
	Duration time.Duration
	Err      error
}

// EmitResolution emits resolve.duration plus either resolve.outcome tagged with the
// role or resolve.error tagged with the error class.
func EmitResolution(sink statsd.Sink, in ResolutionMetric) {
	if sink == nil {
		return
	}
	sink.Timing("resolve.duration", in.Duration, nil)
	if in.Err != nil {
		sink.Count("resolve.error", 1, errorTags(in.Err))
		return
	}
	sink.Count("resolve.outcome", 1, map[string]string{"role": in.Role})
}

// LoginMetric describes a finished login attempt. Result is "success" or the auth
// error code.
type LoginMetric struct {
	Result   string
	Duration time.Duration
}

// EmitLogin emits login.attempt and login.duration.
func EmitLogin(sink statsd.Sink, in LoginMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": in.Result}
	sink.Count("login.attempt", 1, tags)
	sink.Timing("login.duration", in.Duration, CloneTags(tags))
}

func errorTags(err error) map[string]string {
	tags := map[string]string{"result": ResultError}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
	return tags
}

// CloneTags creates a shallow copy of a tag map.
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
