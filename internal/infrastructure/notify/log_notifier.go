package notify

import (
	"context"
	"fmt"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"

	"go.uber.org/zap"
)

// LogNotifier renders notifications and writes them to the log instead
// of an outbound channel. It stands in for a mail or push transport in
// environments where none is configured.
type LogNotifier struct {
	fromName     string
	dashboardURL string
	logger       *zap.SugaredLogger
}

func NewLogNotifier(fromName, dashboardURL string, logger *zap.SugaredLogger) ports.Notifier {
	return &LogNotifier{
		fromName:     fromName,
		dashboardURL: dashboardURL,
		logger:       logger,
	}
}

func (n *LogNotifier) NotifyRequestSubmitted(_ context.Context, req *domain.AnnotationRequest) error {
	n.logger.Infow("notification: annotation request submitted",
		"from", n.fromName,
		"to_coach", req.CoachID,
		"request_id", req.ID,
		"subject", fmt.Sprintf("New annotation request from %s", req.StudentName),
		"estimated_cost", req.EstimatedCost,
		"dashboard_url", fmt.Sprintf("%s/requests/%s", n.dashboardURL, req.ID),
	)
	return nil
}

func (n *LogNotifier) NotifyRequestResolved(_ context.Context, req *domain.AnnotationRequest) error {
	n.logger.Infow("notification: annotation request resolved",
		"from", n.fromName,
		"to_student", req.StudentID,
		"request_id", req.ID,
		"status", req.Status,
		"subject", fmt.Sprintf("Coach %s %s your request", req.CoachName, req.Status),
		"dashboard_url", fmt.Sprintf("%s/requests/%s", n.dashboardURL, req.ID),
	)
	return nil
}
