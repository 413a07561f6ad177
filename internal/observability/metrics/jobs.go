// Package metrics emits job status metrics through a statsd.Sink.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/jobstatus/internal/observability/errors"
	"github.com/target/jobstatus/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultNotFound = "not_found"
	ResultNoop     = "noop"
)

// Operation names used as the "operation" tag.
const (
	OpSubmit      = "submit"
	OpStatusQuery = "status_query"
	OpTransition  = "transition"
)

// JobMetric captures details about one job operation for metric emission.
type JobMetric struct {
	Operation string
	Status    string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitJobOperation emits a counter named "job.<operation>" and, when Duration is set,
// a "job.<operation>.duration" timing. Errors are tagged with their class.
func EmitJobOperation(sink statsd.Sink, in JobMetric) {
	if sink == nil || in.Operation == "" {
		return
	}

	tags := map[string]string{"result": in.Result}
	if in.Status != "" {
		tags["status"] = in.Status
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	name := "job." + in.Operation
	sink.Count(name, 1, tags)

	if in.Duration > 0 {
		sink.Timing(name+".duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
