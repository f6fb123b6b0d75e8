package listeners

import (
	"context"

	"AidLink/internal/match"
	"AidLink/internal/notify"
	"AidLink/pkg/metrics"

	"go.uber.org/zap"
)

// NewMatchListener 记录每次匹配的候选人数，空匹配单独告警
func NewMatchListener(m *metrics.Metrics, logger *zap.Logger) match.SinkFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(_ context.Context, found notify.MatchesFound) error {
		if m != nil {
			m.Matched(found.EntityKind, len(found.Candidates))
		}
		if len(found.Candidates) == 0 {
			logger.Warn("no volunteers in range",
				zap.String("kind", found.EntityKind),
				zap.String("id", found.EntityID),
				zap.Float64("radius_m", found.Radius))
			return nil
		}
		logger.Info("volunteers matched",
			zap.String("kind", found.EntityKind),
			zap.String("id", found.EntityID),
			zap.Int("candidates", len(found.Candidates)))
		return nil
	}
}
