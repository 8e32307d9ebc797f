package usecase

import (
	"strconv"
	"strings"

	"cardsmith/go-backend/internal/domains/workflow/model"
)

const componentName = "workflow"

// sessionCorrelationID names one workflow instance in logs without exposing
// the requester id.
func sessionCorrelationID(s *model.Session) string {
	if s == nil {
		return "n/a"
	}
	return string(s.Kind) + ":" + strconv.FormatInt(s.StartedAt.UnixNano(), 36)
}

func (s *Service) logInfo(operation, correlationID, message string, attrs ...any) {
	base := []any{
		"component", componentName,
		"operation", strings.TrimSpace(operation),
		"correlation_id", strings.TrimSpace(correlationID),
	}
	s.logger.Info(message, append(base, attrs...)...)
}

func (s *Service) logWarn(operation, correlationID, message string, attrs ...any) {
	base := []any{
		"component", componentName,
		"operation", strings.TrimSpace(operation),
		"correlation_id", strings.TrimSpace(correlationID),
	}
	s.logger.Warn(message, append(base, attrs...)...)
}

func (s *Service) recordError(category string, err error, operation, correlationID string, attrs ...any) {
	if err == nil {
		return
	}
	s.metrics.RecordError(category)
	base := []any{
		"component", componentName,
		"operation", strings.TrimSpace(operation),
		"category", strings.TrimSpace(category),
		"correlation_id", strings.TrimSpace(correlationID),
		"error", err.Error(),
	}
	s.logger.Error("workflow error", append(base, attrs...)...)
}
