package postgresengine

import (
	"context"
	"math"
	"time"

	"github.com/liblend/library-lending-go/lending"
)

const (
	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitFailed       = "failed to commit transaction"
	logMsgRollbackFailed     = "failed to roll back transaction"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "lending store operation: "

	logAttrError       = "error"
	logAttrQuery       = "query"
	logAttrDurationMS  = "duration_ms"
	logAttrBorrowID    = "borrow_id"
	logAttrBookID      = "book_id"
	logAttrUserID      = "user_id"
	logAttrStatus      = "status"
	logAttrResultCount = "result_count"

	logActionQuery = "query"
	logActionExec  = "exec"

	metricOperationDuration = "lending_operation_duration_seconds"
	metricOperationErrors   = "lending_operation_errors_total"
	metricGuardConflicts    = "lending_guard_conflicts_total"

	spanNamePrefix    = "lending."
	spanAttrOperation = "operation"
	spanAttrErrorKind = "error_kind"

	statusSuccess = "success"
	statusError   = "error"
)

// instrument starts a span and a timer for one store operation and returns a
// finish function recording duration, outcome metrics and the span status.
func (s *Store) instrument(ctx context.Context, operation string) (context.Context, func(err error)) {
	start := time.Now()

	spanCtx := lending.SpanContext(nil)
	if s.tracingCollector != nil {
		ctx, spanCtx = s.tracingCollector.StartSpan(
			ctx,
			spanNamePrefix+operation,
			map[string]string{spanAttrOperation: operation},
		)
	}

	return ctx, func(err error) {
		duration := time.Since(start)
		status := statusSuccess
		if err != nil {
			status = statusError
		}

		s.recordDurationMetrics(ctx, operation, duration, status)

		if err != nil {
			s.recordErrorMetrics(ctx, operation, err)
		}

		if s.tracingCollector != nil && spanCtx != nil {
			attrs := map[string]string{}
			if err != nil {
				attrs[spanAttrErrorKind] = lending.KindOf(err).String()
			}
			s.tracingCollector.FinishSpan(spanCtx, status, attrs)
		}
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level if the logger is configured.
func (s *Store) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, s.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (s *Store) logOperation(ctx context.Context, action string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (s *Store) logError(message string, err error, args ...any) {
	if s.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		s.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (s *Store) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDurationMetrics records operation duration if the metrics collector is configured.
func (s *Store) recordDurationMetrics(ctx context.Context, operation string, duration time.Duration, status string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextual, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
}

// recordErrorMetrics records guard conflicts and store errors if the metrics collector is configured.
func (s *Store) recordErrorMetrics(ctx context.Context, operation string, err error) {
	if s.metricsCollector == nil {
		return
	}

	kind := lending.KindOf(err)
	metric := metricOperationErrors
	if kind == lending.KindConflict {
		metric = metricGuardConflicts
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		spanAttrErrorKind: kind.String(),
	}

	if contextual, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metric, labels)
}
