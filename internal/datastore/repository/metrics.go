package repository

import (
	"time"

	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
)

// opRecorder reports repository operation outcomes to the datastore
// metrics. The zero value is a no-op so repositories work without a
// metrics registry.
type opRecorder struct {
	m *metrics.DatastoreMetrics
}

// observe is meant to be deferred with time.Now() evaluated at the call
// site so it measures the whole operation.
func (r opRecorder) observe(operation, table string, start time.Time, errp *error) {
	if r.m == nil {
		return
	}
	status := "success"
	if errp != nil && *errp != nil {
		status = "error"
		r.m.RecordDbOperationError(operation, table, errorType(*errp))
	}
	r.m.RecordDbOperation(operation, table, status)
	r.m.RecordDbOperationDuration(operation, table, time.Since(start).Seconds())
}

func (r opRecorder) observeResultSize(operation, table string, size int) {
	if r.m == nil {
		return
	}
	r.m.RecordQueryResultSize(operation, table, size)
}

func errorType(err error) string {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		return string(enhanced.GetCategory())
	}
	return "unknown"
}
